package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/sharinghood-api/internal/application/activity"
	"github.com/sharinghood-api/internal/application/membership"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/pkg/id"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

type Service interface {
	// Create books a post. The booking, its notification and both inbox
	// entries are written in one transaction before the owner is notified.
	Create(ctx context.Context, userID string, req domain.CreateBookingRequest) (*domain.Booking, error)
	// UpdateStatus accepts or declines a pending booking. Only the item owner may call it.
	UpdateStatus(ctx context.Context, userID, bookingID string, req domain.UpdateBookingRequest) (*domain.Booking, error)
	Mine(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.Booking], error)
}

type bookingStore interface {
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, status int) (*domain.Booking, error)
	ByBooker(userID, communityID string) paginate.Source[domain.Booking]
}

type postStore interface {
	Get(ctx context.Context, postID string) (*domain.Post, error)
}

type notificationStore interface {
	Create(ctx context.Context, n *domain.Notification, entries []domain.InboxEntry, booking *domain.Booking) error
}

type inboxStore interface {
	SetRead(ctx context.Context, userID, notificationID string, read bool) error
}

type notifier interface {
	Notify(ctx context.Context, ev activity.Event)
}

type service struct {
	repo          bookingStore
	posts         postStore
	notifications notificationStore
	inbox         inboxStore
	members       membership.Checker
	notifier      notifier
}

type ServiceDeps struct {
	BookingRepo      bookingStore
	PostRepo         postStore
	NotificationRepo notificationStore
	InboxRepo        inboxStore
	MemberRepo       membership.Checker
	Notifier         notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:          deps.BookingRepo,
		posts:         deps.PostRepo,
		notifications: deps.NotificationRepo,
		inbox:         deps.InboxRepo,
		members:       deps.MemberRepo,
		notifier:      deps.Notifier,
	}
}

func validateDates(req domain.CreateBookingRequest) error {
	if req.DateType != domain.DateTypeScheduled {
		return nil
	}
	if req.DateNeed == nil || req.DateReturn == nil {
		return fmt.Errorf("scheduled bookings need date_need and date_return: %w", domain.ErrBadRequest)
	}
	if req.DateReturn.Before(*req.DateNeed) {
		return fmt.Errorf("date_return must not be before date_need: %w", domain.ErrBadRequest)
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := validateDates(req); err != nil {
		return nil, err
	}
	post, err := s.posts.Get(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsActive {
		return nil, fmt.Errorf("post is no longer available: %w", domain.ErrConflict)
	}
	if post.CreatorID == userID {
		return nil, fmt.Errorf("cannot book your own item: %w", domain.ErrBadRequest)
	}
	if err := membership.Require(ctx, s.members, post.CommunityID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &domain.Booking{
		BookingID:      id.New(),
		PostID:         post.PostID,
		CommunityID:    post.CommunityID,
		BookerID:       userID,
		OwnerID:        post.CreatorID,
		NotificationID: id.New(),
		Status:         domain.BookingPending,
		DateType:       req.DateType,
		DateNeed:       req.DateNeed,
		DateReturn:     req.DateReturn,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	n := &domain.Notification{
		NotificationID: b.NotificationID,
		CommunityID:    b.CommunityID,
		OfType:         domain.NotificationBooking,
		ParticipantIDs: []string{b.BookerID, b.OwnerID},
		RefID:          b.PostID,
		BookingID:      b.BookingID,
		CreatedAt:      now,
	}
	entries := []domain.InboxEntry{
		inboxEntry(n, b.BookerID, b.OwnerID, true),
		inboxEntry(n, b.OwnerID, b.BookerID, false),
	}
	if err := s.notifications.Create(ctx, n, entries, b); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, activity.Event{
		Kind:         activity.KindBookingCreated,
		CommunityID:  b.CommunityID,
		ActorID:      userID,
		RecipientIDs: []string{b.OwnerID},
		RefID:        n.NotificationID,
		ItemTitle:    post.Title,
	})
	return b, nil
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

func statusName(status int) string {
	switch status {
	case domain.BookingAccepted:
		return "accepted"
	case domain.BookingDeclined:
		return "declined"
	default:
		return "pending"
	}
}

func (s *service) UpdateStatus(ctx context.Context, userID, bookingID string, req domain.UpdateBookingRequest) (*domain.Booking, error) {
	if req.Status != domain.BookingAccepted && req.Status != domain.BookingDeclined {
		return nil, fmt.Errorf("status must be accepted or declined: %w", domain.ErrBadRequest)
	}
	b, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != userID {
		return nil, fmt.Errorf("only the item owner can answer a booking: %w", domain.ErrForbidden)
	}
	updated, err := s.repo.UpdateStatus(ctx, bookingID, req.Status)
	if err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	if err := s.inbox.SetRead(ctx, updated.BookerID, updated.NotificationID, false); err != nil {
		log.Warn().Err(err).Str("booking_id", bookingID).Msg("mark booker inbox unread")
	}
	var title string
	if post, err := s.posts.Get(ctx, updated.PostID); err == nil {
		title = post.Title
	} else {
		log.Warn().Err(err).Str("post_id", updated.PostID).Msg("load booked post")
	}
	s.notifier.Notify(ctx, activity.Event{
		Kind:         activity.KindBookingUpdated,
		CommunityID:  updated.CommunityID,
		ActorID:      userID,
		RecipientIDs: []string{updated.BookerID},
		RefID:        updated.NotificationID,
		ItemTitle:    title,
		Status:       statusName(updated.Status),
	})
	return updated, nil
}

func (s *service) Mine(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.Booking], error) {
	if err := membership.Require(ctx, s.members, communityID, userID); err != nil {
		return nil, err
	}
	return paginate.Fetch(ctx, p, s.repo.ByBooker(userID, communityID))
}
