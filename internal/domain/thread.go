package domain

import "time"

// Thread parent types.
const (
	ParentPost    = "post"
	ParentRequest = "request"
)

// Thread is a comment on a post or a request.
type Thread struct {
	ThreadID    string    `json:"id" dynamodbav:"thread_id"`
	ParentID    string    `json:"parent_id" dynamodbav:"parent_id"`
	ParentType  string    `json:"parent_type" dynamodbav:"parent_type"`
	CommunityID string    `json:"community_id" dynamodbav:"community_id"`
	CreatorID   string    `json:"creator_id" dynamodbav:"creator_id"`
	Content     string    `json:"content" dynamodbav:"content"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateThreadRequest struct {
	ParentID   string `json:"parent_id" validate:"required"`
	ParentType string `json:"parent_type" validate:"required,oneof=post request"`
	Content    string `json:"content" validate:"required,max=2000"`
}
