package domain

import "time"

// Item condition values.
const (
	ConditionNew = iota
	ConditionLikeNew
	ConditionGood
	ConditionFair
)

// Post is an item offered for sharing inside a community.
type Post struct {
	PostID      string    `json:"id" dynamodbav:"post_id"`
	CommunityID string    `json:"community_id" dynamodbav:"community_id"`
	CreatorID   string    `json:"creator_id" dynamodbav:"creator_id"`
	Title       string    `json:"title" dynamodbav:"title"`
	Description string    `json:"description" dynamodbav:"description"`
	ImageURL    string    `json:"image_url,omitempty" dynamodbav:"image_url"`
	Condition   int       `json:"condition" dynamodbav:"condition"`
	IsGiveaway  bool      `json:"is_giveaway" dynamodbav:"is_giveaway"`
	IsActive    bool      `json:"is_active" dynamodbav:"is_active"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreatePostRequest struct {
	CommunityID string `json:"community_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Condition   int    `json:"condition" validate:"min=0,max=3"`
	IsGiveaway  bool   `json:"is_giveaway"`
}

type UpdatePostRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Condition   *int    `json:"condition" validate:"omitempty,min=0,max=3"`
	IsGiveaway  *bool   `json:"is_giveaway"`
}
