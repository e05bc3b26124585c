package domain

import "time"

type Community struct {
	CommunityID string    `json:"id" dynamodbav:"community_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Code        string    `json:"code" dynamodbav:"code"`
	ZipCode     string    `json:"zip_code,omitempty" dynamodbav:"zip_code"`
	CreatorID   string    `json:"creator_id" dynamodbav:"creator_id"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

// Member links a user to a community. PK community_id, SK user_id.
type Member struct {
	CommunityID string    `json:"community_id" dynamodbav:"community_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	JoinedAt    time.Time `json:"joined" dynamodbav:"joined_at"`
}

// CommunitySummary is a community as listed for the caller, with the
// unread notification count from the counter cache.
type CommunitySummary struct {
	Community
	UnreadCount int `json:"unread_count"`
}

type CreateCommunityRequest struct {
	Name    string `json:"name" validate:"required,max=80"`
	ZipCode string `json:"zip_code" validate:"omitempty,max=12"`
}
