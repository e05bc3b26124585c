package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sharinghood-api/internal/application/activity"
	"github.com/sharinghood-api/internal/application/membership"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/pkg/id"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type Service interface {
	// CreateChat returns the conversation between the caller and the recipient
	// about the same post or request, creating it when there is none yet.
	// A non-empty Text is sent as the first message.
	CreateChat(ctx context.Context, userID string, req domain.CreateNotificationRequest) (*domain.Notification, error)
	// Get marks the caller's inbox entry as read.
	Get(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
	// ByCommunity pages the caller's inbox and resets the unread counter for the community.
	ByCommunity(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.InboxItem], error)
	Messages(ctx context.Context, userID, notificationID string, p paginate.Params) (*paginate.Page[domain.Message], error)
	CreateMessage(ctx context.Context, userID, notificationID string, req domain.CreateMessageRequest) (*domain.Message, error)
	// Authorize returns nil when userID may follow the notification's messages.
	Authorize(ctx context.Context, userID, notificationID string) error
}

type notificationStore interface {
	Create(ctx context.Context, n *domain.Notification, entries []domain.InboxEntry, booking *domain.Booking) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
}

type inboxStore interface {
	ByCommunity(userID, communityID string) paginate.Source[domain.InboxEntry]
	FindConversation(ctx context.Context, userID, communityID, peerID, refID string, ofType int) (*domain.InboxEntry, error)
	SetRead(ctx context.Context, userID, notificationID string, read bool) error
}

type messageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	ByNotification(notificationID string) paginate.Source[domain.Message]
}

type postStore interface {
	Get(ctx context.Context, postID string) (*domain.Post, error)
}

type requestStore interface {
	Get(ctx context.Context, requestID string) (*domain.ItemRequest, error)
}

type userStore interface {
	BatchGet(ctx context.Context, ids []string) ([]domain.User, error)
}

type counterClearer interface {
	Clear(ctx context.Context, userID, communityID string)
}

type messagePublisher interface {
	PublishMessage(ctx context.Context, ev domain.MessageEvent) error
}

type notifier interface {
	Notify(ctx context.Context, ev activity.Event)
}

type service struct {
	notifications notificationStore
	inbox         inboxStore
	messages      messageStore
	posts         postStore
	requests      requestStore
	users         userStore
	members       membership.Checker
	counter       counterClearer
	publisher     messagePublisher
	notifier      notifier
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	InboxRepo        inboxStore
	MessageRepo      messageStore
	PostRepo         postStore
	RequestRepo      requestStore
	UserRepo         userStore
	MemberRepo       membership.Checker
	Counter          counterClearer
	Publisher        messagePublisher
	Notifier         notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		notifications: deps.NotificationRepo,
		inbox:         deps.InboxRepo,
		messages:      deps.MessageRepo,
		posts:         deps.PostRepo,
		requests:      deps.RequestRepo,
		users:         deps.UserRepo,
		members:       deps.MemberRepo,
		counter:       deps.Counter,
		publisher:     deps.Publisher,
		notifier:      deps.Notifier,
	}
}

// subject resolves what a chat is about: a request, a post, or nothing.
func (s *service) subject(ctx context.Context, req domain.CreateNotificationRequest) (refID string, ofType int, title string, _ error) {
	switch {
	case req.RequestID != "":
		r, err := s.requests.Get(ctx, req.RequestID)
		if err != nil {
			return "", 0, "", err
		}
		if r.CommunityID != req.CommunityID {
			return "", 0, "", fmt.Errorf("request belongs to another community: %w", domain.ErrBadRequest)
		}
		return r.RequestID, domain.NotificationRequest, r.Title, nil
	case req.PostID != "":
		p, err := s.posts.Get(ctx, req.PostID)
		if err != nil {
			return "", 0, "", err
		}
		if p.CommunityID != req.CommunityID {
			return "", 0, "", fmt.Errorf("post belongs to another community: %w", domain.ErrBadRequest)
		}
		return p.PostID, domain.NotificationChat, p.Title, nil
	default:
		return "", domain.NotificationChat, "", nil
	}
}

func (s *service) CreateChat(ctx context.Context, userID string, req domain.CreateNotificationRequest) (*domain.Notification, error) {
	if req.RecipientID == userID {
		return nil, fmt.Errorf("cannot start a conversation with yourself: %w", domain.ErrBadRequest)
	}
	if err := membership.Require(ctx, s.members, req.CommunityID, userID); err != nil {
		return nil, err
	}
	if err := membership.Require(ctx, s.members, req.CommunityID, req.RecipientID); err != nil {
		return nil, err
	}
	refID, ofType, title, err := s.subject(ctx, req)
	if err != nil {
		return nil, err
	}

	n, created, err := s.findOrCreate(ctx, userID, req.RecipientID, req.CommunityID, refID, ofType)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Text)
	if text != "" {
		if _, err := s.addMessage(ctx, n, userID, text, title); err != nil {
			return nil, err
		}
	} else if created {
		s.notifier.Notify(ctx, activity.Event{
			Kind:         activity.KindNewMessage,
			CommunityID:  n.CommunityID,
			ActorID:      userID,
			RecipientIDs: []string{req.RecipientID},
			RefID:        n.NotificationID,
			ItemTitle:    title,
		})
	}
	return n, nil
}

func (s *service) findOrCreate(ctx context.Context, userID, peerID, communityID, refID string, ofType int) (*domain.Notification, bool, error) {
	entry, err := s.inbox.FindConversation(ctx, userID, communityID, peerID, refID, ofType)
	if err == nil {
		n, err := s.notifications.Get(ctx, entry.NotificationID)
		return n, false, err
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	n := &domain.Notification{
		NotificationID: id.New(),
		CommunityID:    communityID,
		OfType:         ofType,
		ParticipantIDs: []string{userID, peerID},
		RefID:          refID,
		CreatedAt:      time.Now().UTC(),
	}
	entries := []domain.InboxEntry{
		inboxEntry(n, userID, peerID, true),
		inboxEntry(n, peerID, userID, false),
	}
	if err := s.notifications.Create(ctx, n, entries, nil); err != nil {
		return nil, false, err
	}
	return n, true, nil
}

func inboxEntry(n *domain.Notification, userID, peerID string, read bool) domain.InboxEntry {
	return domain.InboxEntry{
		UserID:         userID,
		NotificationID: n.NotificationID,
		CommunityID:    n.CommunityID,
		PeerID:         peerID,
		RefID:          n.RefID,
		OfType:         n.OfType,
		IsRead:         read,
		CreatedAt:      n.CreatedAt,
	}
}

// participating loads the notification and checks userID takes part in it.
func (s *service) participating(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if !n.HasParticipant(userID) {
		return nil, fmt.Errorf("not a participant of notification %s: %w", notificationID, domain.ErrForbidden)
	}
	return n, nil
}

func (s *service) Get(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	n, err := s.participating(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if err := s.inbox.SetRead(ctx, userID, notificationID, true); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("notification_id", notificationID).Msg("mark inbox entry read")
	}
	return n, nil
}

func (s *service) Authorize(ctx context.Context, userID, notificationID string) error {
	_, err := s.participating(ctx, userID, notificationID)
	return err
}

func (s *service) ByCommunity(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.InboxItem], error) {
	if err := membership.Require(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}
	s.counter.Clear(ctx, userID, communityID)

	page, err := paginate.Fetch(ctx, p, s.inbox.ByCommunity(userID, communityID))
	if err != nil {
		return nil, err
	}
	peers, err := s.profiles(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	return paginate.Map(page, func(e domain.InboxEntry) domain.InboxItem {
		peer, ok := peers[e.PeerID]
		if !ok {
			peer = domain.Profile{UserID: e.PeerID}
		}
		return domain.InboxItem{InboxEntry: e, Peer: peer}
	}), nil
}

func (s *service) profiles(ctx context.Context, entries []domain.InboxEntry) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(entries))
	if len(entries) == 0 {
		return out, nil
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.PeerID
	}
	users, err := s.users.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].UserID] = users[i].Profile()
	}
	return out, nil
}

func (s *service) Messages(ctx context.Context, userID, notificationID string, p paginate.Params) (*paginate.Page[domain.Message], error) {
	if _, err := s.participating(ctx, userID, notificationID); err != nil {
		return nil, err
	}
	return paginate.Fetch(ctx, p, s.messages.ByNotification(notificationID))
}

func (s *service) CreateMessage(ctx context.Context, userID, notificationID string, req domain.CreateMessageRequest) (*domain.Message, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("text is required: %w", domain.ErrBadRequest)
	}
	n, err := s.participating(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	return s.addMessage(ctx, n, userID, text, "")
}

// addMessage stores the message, then flags the other participants' entries
// unread, publishes it to live subscribers and notifies the recipients.
// Only the store write can fail the call.
func (s *service) addMessage(ctx context.Context, n *domain.Notification, userID, text, title string) (*domain.Message, error) {
	m := &domain.Message{
		MessageID:      id.New(),
		NotificationID: n.NotificationID,
		CreatorID:      userID,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Put(ctx, m); err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	recipients := make([]string, 0, len(n.ParticipantIDs))
	for _, pid := range n.ParticipantIDs {
		if pid == userID {
			continue
		}
		recipients = append(recipients, pid)
		if err := s.inbox.SetRead(ctx, pid, n.NotificationID, false); err != nil {
			log.Warn().Err(err).Str("notification_id", n.NotificationID).Str("user_id", pid).Msg("mark inbox entry unread")
		}
	}
	if err := s.publisher.PublishMessage(ctx, domain.MessageEvent{NotificationID: n.NotificationID, Message: *m}); err != nil {
		log.Warn().Err(err).Str("notification_id", n.NotificationID).Msg("publish message")
	}
	s.notifier.Notify(ctx, activity.Event{
		Kind:         activity.KindNewMessage,
		CommunityID:  n.CommunityID,
		ActorID:      userID,
		RecipientIDs: recipients,
		RefID:        n.NotificationID,
		ItemTitle:    title,
		Text:         text,
	})
	return m, nil
}
