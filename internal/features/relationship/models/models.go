package models

import (
	"time"

	"pronet-backend/internal/common/errors"
	usermodels "pronet-backend/internal/features/user/models"
)

// Edge ids are deterministic composite keys so a concurrent duplicate create
// turns into a native conditional-write conflict instead of a silent race.
func FollowID(followerID, followeeID string) string {
	return followerID + "#" + followeeID
}

func ConnectionID(connectorID, connecteeID string) string {
	return connectorID + "#" + connecteeID
}

// Follow is a one-directional "follower follows followee" edge. At most one
// record exists per ordered pair.
type Follow struct {
	ID         string    `json:"id" dynamodbav:"id"`
	FollowerID string    `json:"followerId" dynamodbav:"followerId"`
	FolloweeID string    `json:"followeeId" dynamodbav:"followeeId"`
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// Connection is one of the two mirror rows representing a logical connection
// between two users. Both rows are created, confirmed, and deleted together
// and always carry the same InitiatedBy, IsConnected, and ConnectedAt values.
type Connection struct {
	ID          string    `json:"id" dynamodbav:"id"`
	ConnectorID string    `json:"connectorId" dynamodbav:"connectorId"`
	ConnecteeID string    `json:"connecteeId" dynamodbav:"connecteeId"`
	IsConnected bool      `json:"isConnected" dynamodbav:"isConnected"`
	ConnectedAt *int64    `json:"connectedAt,omitempty" dynamodbav:"connectedAt,omitempty"`
	InitiatedBy string    `json:"connectionInitiatedBy" dynamodbav:"connectionInitiatedBy"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// ConnectionType filters a user's connection listing.
type ConnectionType string

const (
	// ConnectionTypeConnected selects confirmed connections.
	ConnectionTypeConnected ConnectionType = "connected"
	// ConnectionTypePending selects incoming requests awaiting the viewer's
	// confirmation.
	ConnectionTypePending ConnectionType = "pending"
	// ConnectionTypeSent selects outgoing requests the viewer initiated.
	ConnectionTypeSent ConnectionType = "sent"
	// ConnectionTypeAll applies no filter.
	ConnectionTypeAll ConnectionType = "all"
)

// ParseConnectionType validates a raw query value; empty defaults to "all".
func ParseConnectionType(raw string) (ConnectionType, error) {
	switch ConnectionType(raw) {
	case "":
		return ConnectionTypeAll, nil
	case ConnectionTypeConnected, ConnectionTypePending, ConnectionTypeSent, ConnectionTypeAll:
		return ConnectionType(raw), nil
	default:
		return "", errors.NewInvalidError("connectionType must be one of connected, pending, sent, all").
			WithDetail("connectionType", raw)
	}
}

// Matches reports whether a connection row belongs to this listing type. Rows
// are stored per viewer, so the viewer is always the row's ConnectorID.
func (t ConnectionType) Matches(c *Connection) bool {
	switch t {
	case ConnectionTypeConnected:
		return c.IsConnected
	case ConnectionTypePending:
		return !c.IsConnected && c.InitiatedBy != c.ConnectorID
	case ConnectionTypeSent:
		return !c.IsConnected && c.InitiatedBy == c.ConnectorID
	default:
		return true
	}
}

// ConnectionEntry is a connection row enriched with the counterpart's profile
// snapshot.
type ConnectionEntry struct {
	Connection
	Profile *usermodels.UserSnapshot `json:"profile,omitempty"`
}

// ConnectionPage is one page of a cursor-paginated connection listing.
type ConnectionPage struct {
	Items      []ConnectionEntry `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}
