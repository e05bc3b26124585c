package domain

import "time"

type Message struct {
	MessageID      string    `json:"id" dynamodbav:"message_id"`
	NotificationID string    `json:"notification_id" dynamodbav:"notification_id"`
	CreatorID      string    `json:"creator_id" dynamodbav:"creator_id"`
	Text           string    `json:"text" dynamodbav:"text"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// MessageEvent is the payload published on the notification message channel.
type MessageEvent struct {
	NotificationID string  `json:"notification_id"`
	Message        Message `json:"message"`
}
