package models

// ActivityType names the activity a notification message describes.
type ActivityType string

const (
	ActivityConnectionRequest      ActivityType = "connectionRequest"
	ActivityConnectionConfirmation ActivityType = "connectionConfirmation"
)

// Activity is the fire-and-forget message handed to the notification queue.
type Activity struct {
	ResourceRefID string       `json:"resourceRefId"`
	ActivityType  ActivityType `json:"activityType"`
}
