package domain

import "time"

// Notification kinds.
const (
	NotificationChat = iota
	NotificationBooking
	NotificationRequest
)

// Notification is a conversation between participants of one community,
// optionally anchored to a post, a request or a booking.
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	CommunityID    string    `json:"community_id" dynamodbav:"community_id"`
	OfType         int       `json:"of_type" dynamodbav:"of_type"`
	ParticipantIDs []string  `json:"participant_ids" dynamodbav:"participant_ids"`
	RefID          string    `json:"ref_id,omitempty" dynamodbav:"ref_id"` // post or request id
	BookingID      string    `json:"booking_id,omitempty" dynamodbav:"booking_id"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

// HasParticipant reports whether userID takes part in the notification.
func (n *Notification) HasParticipant(userID string) bool {
	for _, id := range n.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// InboxEntry is one participant's view of a notification.
// PK user_id, SK notification_id; ULID ids keep the sort key in creation order.
type InboxEntry struct {
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	NotificationID string    `json:"notification_id" dynamodbav:"notification_id"`
	CommunityID    string    `json:"community_id" dynamodbav:"community_id"`
	PeerID         string    `json:"peer_id" dynamodbav:"peer_id"`
	RefID          string    `json:"ref_id,omitempty" dynamodbav:"ref_id"`
	OfType         int       `json:"of_type" dynamodbav:"of_type"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateNotificationRequest struct {
	CommunityID string `json:"community_id" validate:"required"`
	RecipientID string `json:"recipient_id" validate:"required"`
	PostID      string `json:"post_id"`
	RequestID   string `json:"request_id" validate:"excluded_with=PostID"`
	Text        string `json:"text" validate:"max=2000"`
}

// InboxItem is an inbox entry as listed for its owner, with the other participant.
type InboxItem struct {
	InboxEntry
	Peer Profile `json:"peer"`
}
