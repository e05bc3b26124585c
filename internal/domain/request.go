package domain

import "time"

// ItemRequest is a member asking the community for an item.
type ItemRequest struct {
	RequestID   string     `json:"id" dynamodbav:"request_id"`
	CommunityID string     `json:"community_id" dynamodbav:"community_id"`
	CreatorID   string     `json:"creator_id" dynamodbav:"creator_id"`
	Title       string     `json:"title" dynamodbav:"title"`
	Description string     `json:"description" dynamodbav:"description"`
	ImageURL    string     `json:"image_url,omitempty" dynamodbav:"image_url"`
	DateNeed    *time.Time `json:"date_need,omitempty" dynamodbav:"date_need"`
	DateReturn  *time.Time `json:"date_return,omitempty" dynamodbav:"date_return"`
	IsActive    bool       `json:"is_active" dynamodbav:"is_active"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
}

type CreateItemRequest struct {
	CommunityID string     `json:"community_id" validate:"required"`
	Title       string     `json:"title" validate:"required,max=100"`
	Description string     `json:"description" validate:"max=2000"`
	ImageURL    string     `json:"image_url" validate:"omitempty,url"`
	DateNeed    *time.Time `json:"date_need"`
	DateReturn  *time.Time `json:"date_return"`
}
