// Package activity fans a completed mutation out to the people it concerns:
// their unread counters first, then email, push and SMS through the queue.
package activity

// Kinds of activity, also used as email template names.
const (
	KindBookingCreated = "booking_created"
	KindBookingUpdated = "booking_updated"
	KindNewMessage     = "new_message"
	KindNewRequest     = "new_request"
	KindNewThread      = "new_thread"
)

// Queue topics, one per delivery channel.
const (
	TopicEmail = "email"
	TopicPush  = "push"
	TopicSMS   = "sms"
)

// Event describes one mutation worth telling other users about.
type Event struct {
	Kind         string
	CommunityID  string
	ActorID      string
	RecipientIDs []string
	// RefID is the notification, post or request the recipient should open.
	RefID     string
	ItemTitle string
	Status    string
	Text      string
}

// Delivery is one recipient's share of an Event, as carried on the queue.
type Delivery struct {
	Kind        string `json:"kind"`
	CommunityID string `json:"community_id"`
	ActorID     string `json:"actor_id"`
	RecipientID string `json:"recipient_id"`
	RefID       string `json:"ref_id"`
	ItemTitle   string `json:"item_title,omitempty"`
	Status      string `json:"status,omitempty"`
	Text        string `json:"text,omitempty"`
}

// smsKinds are the events important enough to text a user without a push device.
var smsKinds = map[string]bool{
	KindBookingCreated: true,
	KindBookingUpdated: true,
}
