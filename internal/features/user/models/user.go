package models

import "time"

// UserSkill is one entry of a user's skill list together with the ids of the
// users who endorsed it.
type UserSkill struct {
	Skill     string   `json:"skill" dynamodbav:"skill"`
	Endorsers []string `json:"endorsers,omitempty" dynamodbav:"endorsers,omitempty"`
}

// User is the aggregate document persisted in the users table. The three
// counters are denormalized and mutated only by the relationship service.
type User struct {
	ID                 string      `json:"id" dynamodbav:"id"`
	Email              string      `json:"email" dynamodbav:"email"`
	Name               string      `json:"name" dynamodbav:"name"`
	Headline           string      `json:"headline,omitempty" dynamodbav:"headline,omitempty"`
	AboutUser          string      `json:"aboutUser,omitempty" dynamodbav:"aboutUser,omitempty"`
	CurrentPosition    string      `json:"currentPosition,omitempty" dynamodbav:"currentPosition,omitempty"`
	Location           string      `json:"location,omitempty" dynamodbav:"location,omitempty"`
	DisplayPictureURL  string      `json:"displayPictureUrl,omitempty" dynamodbav:"displayPictureUrl,omitempty"`
	BackgroundImageURL string      `json:"backgroundImageUrl,omitempty" dynamodbav:"backgroundImageUrl,omitempty"`
	DateOfBirth        int64       `json:"dateOfBirth,omitempty" dynamodbav:"dateOfBirth,omitempty"`
	Skills             []UserSkill `json:"skills,omitempty" dynamodbav:"skills,omitempty"`
	FollowerCount      int64       `json:"followerCount" dynamodbav:"followerCount"`
	FolloweeCount      int64       `json:"followeeCount" dynamodbav:"followeeCount"`
	ConnectionCount    int64       `json:"connectionCount" dynamodbav:"connectionCount"`
	CreatedAt          time.Time   `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt" dynamodbav:"updatedAt"`
}

// UserSnapshot is the lightweight profile projection attached to connection
// pages and other listings.
type UserSnapshot struct {
	ID                 string `json:"id" dynamodbav:"id"`
	Name               string `json:"name" dynamodbav:"name"`
	Headline           string `json:"headline,omitempty" dynamodbav:"headline,omitempty"`
	DisplayPictureURL  string `json:"displayPictureUrl,omitempty" dynamodbav:"displayPictureUrl,omitempty"`
	BackgroundImageURL string `json:"backgroundImageUrl,omitempty" dynamodbav:"backgroundImageUrl,omitempty"`
	Email              string `json:"email" dynamodbav:"email"`
}

// UserUpdate carries a partial profile update; nil fields are left untouched.
type UserUpdate struct {
	Name               *string      `json:"name,omitempty"`
	Headline           *string      `json:"headline,omitempty"`
	AboutUser          *string      `json:"aboutUser,omitempty"`
	CurrentPosition    *string      `json:"currentPosition,omitempty"`
	Location           *string      `json:"location,omitempty"`
	DisplayPictureURL  *string      `json:"displayPictureUrl,omitempty"`
	BackgroundImageURL *string      `json:"backgroundImageUrl,omitempty"`
	DateOfBirth        *int64       `json:"dateOfBirth,omitempty"`
	Skills             *[]UserSkill `json:"skills,omitempty"`
}

// AuthUser is the authenticated caller identity attached to the request
// context by the auth middleware.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CounterField names one of the denormalized counters on the user document.
type CounterField string

const (
	CounterFollowers   CounterField = "followerCount"
	CounterFollowees   CounterField = "followeeCount"
	CounterConnections CounterField = "connectionCount"
)
