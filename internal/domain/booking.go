package domain

import "time"

// Booking status values.
const (
	BookingPending = iota
	BookingAccepted
	BookingDeclined
)

// Booking date types: as soon as possible, flexible, or a scheduled window.
const (
	DateTypeASAP = iota
	DateTypeRandom
	DateTypeScheduled
)

type Booking struct {
	BookingID      string     `json:"id" dynamodbav:"booking_id"`
	PostID         string     `json:"post_id" dynamodbav:"post_id"`
	CommunityID    string     `json:"community_id" dynamodbav:"community_id"`
	BookerID       string     `json:"booker_id" dynamodbav:"booker_id"`
	OwnerID        string     `json:"owner_id" dynamodbav:"owner_id"`
	NotificationID string     `json:"notification_id" dynamodbav:"notification_id"`
	Status         int        `json:"status" dynamodbav:"status"`
	DateType       int        `json:"date_type" dynamodbav:"date_type"`
	DateNeed       *time.Time `json:"date_need,omitempty" dynamodbav:"date_need"`
	DateReturn     *time.Time `json:"date_return,omitempty" dynamodbav:"date_return"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateBookingRequest struct {
	PostID     string     `json:"post_id" validate:"required"`
	DateType   int        `json:"date_type" validate:"min=0,max=2"`
	DateNeed   *time.Time `json:"date_need"`
	DateReturn *time.Time `json:"date_return"`
}

type UpdateBookingRequest struct {
	Status int `json:"status" validate:"oneof=1 2"`
}
