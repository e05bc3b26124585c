package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sharinghood-api/internal/application/activity"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

// --- mocks ---

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) Create(ctx context.Context, n *domain.Notification, entries []domain.InboxEntry, b *domain.Booking) error {
	return m.Called(ctx, n, entries, b).Error(0)
}
func (m *mockNotificationStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockInboxStore struct{ mock.Mock }

func (m *mockInboxStore) ByCommunity(userID, communityID string) paginate.Source[domain.InboxEntry] {
	return m.Called(userID, communityID).Get(0).(paginate.Source[domain.InboxEntry])
}
func (m *mockInboxStore) FindConversation(ctx context.Context, userID, communityID, peerID, refID string, ofType int) (*domain.InboxEntry, error) {
	args := m.Called(ctx, userID, communityID, peerID, refID, ofType)
	if e, _ := args.Get(0).(*domain.InboxEntry); e != nil {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockInboxStore) SetRead(ctx context.Context, userID, notificationID string, read bool) error {
	return m.Called(ctx, userID, notificationID, read).Error(0)
}

type mockMessageStore struct{ mock.Mock }

func (m *mockMessageStore) Put(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *mockMessageStore) ByNotification(notificationID string) paginate.Source[domain.Message] {
	return m.Called(notificationID).Get(0).(paginate.Source[domain.Message])
}

type mockPostStore struct{ mock.Mock }

func (m *mockPostStore) Get(ctx context.Context, postID string) (*domain.Post, error) {
	args := m.Called(ctx, postID)
	if p, _ := args.Get(0).(*domain.Post); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRequestStore struct{ mock.Mock }

func (m *mockRequestStore) Get(ctx context.Context, requestID string) (*domain.ItemRequest, error) {
	args := m.Called(ctx, requestID)
	if r, _ := args.Get(0).(*domain.ItemRequest); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) BatchGet(ctx context.Context, ids []string) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockMembers struct{ mock.Mock }

func (m *mockMembers) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	args := m.Called(ctx, communityID, userID)
	return args.Bool(0), args.Error(1)
}

type mockCounter struct{ mock.Mock }

func (m *mockCounter) Clear(ctx context.Context, userID, communityID string) { m.Called(ctx, userID, communityID) }

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishMessage(ctx context.Context, ev domain.MessageEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, ev activity.Event) { m.Called(ctx, ev) }

type sliceSource[T any] []T

func (s sliceSource[T]) Count(context.Context) (int, error) { return len(s), nil }
func (s sliceSource[T]) List(_ context.Context, offset, limit int) ([]T, error) {
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end], nil
}

type mocks struct {
	ns  *mockNotificationStore
	is  *mockInboxStore
	ms  *mockMessageStore
	ps  *mockPostStore
	rs  *mockRequestStore
	us  *mockUserStore
	mm  *mockMembers
	cnt *mockCounter
	pub *mockPublisher
	n   *mockNotifier
}

func newSvc() (Service, *mocks) {
	m := &mocks{
		&mockNotificationStore{}, &mockInboxStore{}, &mockMessageStore{}, &mockPostStore{}, &mockRequestStore{},
		&mockUserStore{}, &mockMembers{}, &mockCounter{}, &mockPublisher{}, &mockNotifier{},
	}
	return NewService(ServiceDeps{
		NotificationRepo: m.ns,
		InboxRepo:        m.is,
		MessageRepo:      m.ms,
		PostRepo:         m.ps,
		RequestRepo:      m.rs,
		UserRepo:         m.us,
		MemberRepo:       m.mm,
		Counter:          m.cnt,
		Publisher:        m.pub,
		Notifier:         m.n,
	}), m
}

func chat() *domain.Notification {
	return &domain.Notification{NotificationID: "n1", CommunityID: "c1", ParticipantIDs: []string{"u1", "u2"}, RefID: "p1"}
}

func bothMembers(m *mocks) {
	m.mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	m.mm.On("IsMember", mock.Anything, "c1", "u2").Return(true, nil)
}

// --- CreateChat ---

func TestCreateChat_NewConversationWithFirstMessage(t *testing.T) {
	svc, m := newSvc()
	bothMembers(m)
	m.ps.On("Get", mock.Anything, "p1").Return(&domain.Post{PostID: "p1", CommunityID: "c1", Title: "Drill"}, nil)
	m.is.On("FindConversation", mock.Anything, "u1", "c1", "u2", "p1", domain.NotificationChat).Return(nil, domain.ErrNotFound)
	var entries []domain.InboxEntry
	m.ns.On("Create", mock.Anything, mock.AnythingOfType("*domain.Notification"), mock.Anything, (*domain.Booking)(nil)).
		Run(func(args mock.Arguments) { entries = args.Get(2).([]domain.InboxEntry) }).Return(nil)
	m.ms.On("Put", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	m.is.On("SetRead", mock.Anything, "u2", mock.Anything, false).Return(nil)
	m.pub.On("PublishMessage", mock.Anything, mock.Anything).Return(nil)
	m.n.On("Notify", mock.Anything, mock.MatchedBy(func(ev activity.Event) bool {
		return ev.Kind == activity.KindNewMessage && ev.Text == "Hi!" && ev.ItemTitle == "Drill" &&
			len(ev.RecipientIDs) == 1 && ev.RecipientIDs[0] == "u2"
	})).Return()

	n, err := svc.CreateChat(context.Background(), "u1", domain.CreateNotificationRequest{
		CommunityID: "c1", RecipientID: "u2", PostID: "p1", Text: " Hi! ",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, n.ParticipantIDs)
	assert.Equal(t, "p1", n.RefID)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsRead)
	assert.False(t, entries[1].IsRead)
	m.n.AssertNumberOfCalls(t, "Notify", 1)
	m.pub.AssertExpectations(t)
}

func TestCreateChat_ReusesExistingConversation(t *testing.T) {
	svc, m := newSvc()
	bothMembers(m)
	m.is.On("FindConversation", mock.Anything, "u1", "c1", "u2", "", domain.NotificationChat).
		Return(&domain.InboxEntry{NotificationID: "n1"}, nil)
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)

	n, err := svc.CreateChat(context.Background(), "u1", domain.CreateNotificationRequest{CommunityID: "c1", RecipientID: "u2"})

	require.NoError(t, err)
	assert.Equal(t, "n1", n.NotificationID)
	m.ns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestCreateChat_RequestConversation(t *testing.T) {
	svc, m := newSvc()
	bothMembers(m)
	m.rs.On("Get", mock.Anything, "r1").Return(&domain.ItemRequest{RequestID: "r1", CommunityID: "c1"}, nil)
	m.is.On("FindConversation", mock.Anything, "u1", "c1", "u2", "r1", domain.NotificationRequest).Return(nil, domain.ErrNotFound)
	m.ns.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.n.On("Notify", mock.Anything, mock.Anything).Return()

	n, err := svc.CreateChat(context.Background(), "u1", domain.CreateNotificationRequest{CommunityID: "c1", RecipientID: "u2", RequestID: "r1"})

	require.NoError(t, err)
	assert.Equal(t, domain.NotificationRequest, n.OfType)
	m.n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestCreateChat_WithYourself(t *testing.T) {
	svc, _ := newSvc()

	_, err := svc.CreateChat(context.Background(), "u1", domain.CreateNotificationRequest{CommunityID: "c1", RecipientID: "u1"})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreateChat_RecipientOutsideCommunity(t *testing.T) {
	svc, m := newSvc()
	m.mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	m.mm.On("IsMember", mock.Anything, "c1", "u3").Return(false, nil)

	_, err := svc.CreateChat(context.Background(), "u1", domain.CreateNotificationRequest{CommunityID: "c1", RecipientID: "u3"})

	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCreateChat_PostFromOtherCommunity(t *testing.T) {
	svc, m := newSvc()
	bothMembers(m)
	m.ps.On("Get", mock.Anything, "p1").Return(&domain.Post{PostID: "p1", CommunityID: "c9"}, nil)

	_, err := svc.CreateChat(context.Background(), "u1", domain.CreateNotificationRequest{CommunityID: "c1", RecipientID: "u2", PostID: "p1"})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Get / Authorize ---

func TestGet_MarksRead(t *testing.T) {
	svc, m := newSvc()
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)
	m.is.On("SetRead", mock.Anything, "u2", "n1", true).Return(nil)

	_, err := svc.Get(context.Background(), "u2", "n1")

	require.NoError(t, err)
	m.is.AssertExpectations(t)
}

func TestGet_OutsiderForbidden(t *testing.T) {
	svc, m := newSvc()
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)

	_, err := svc.Get(context.Background(), "u3", "n1")

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	m.is.AssertNotCalled(t, "SetRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthorize(t *testing.T) {
	svc, m := newSvc()
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)

	assert.NoError(t, svc.Authorize(context.Background(), "u1", "n1"))
	assert.True(t, errors.Is(svc.Authorize(context.Background(), "u3", "n1"), domain.ErrForbidden))
}

// --- ByCommunity ---

func TestByCommunity_ClearsCounterAndAttachesPeers(t *testing.T) {
	svc, m := newSvc()
	m.mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	m.cnt.On("Clear", mock.Anything, "u1", "c1").Return()
	m.is.On("ByCommunity", "u1", "c1").Return(paginate.Source[domain.InboxEntry](sliceSource[domain.InboxEntry]{
		{NotificationID: "n2", PeerID: "u2"}, {NotificationID: "n1", PeerID: "u3"},
	}))
	m.us.On("BatchGet", mock.Anything, []string{"u2", "u3"}).Return([]domain.User{{UserID: "u2", Name: "Bea"}}, nil)

	page, err := svc.ByCommunity(context.Background(), "u1", "c1", paginate.Params{Limit: 10})

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Bea", page.Items[0].Peer.Name)
	assert.Equal(t, "u3", page.Items[1].Peer.UserID)
	assert.False(t, page.HasMore)
	m.cnt.AssertExpectations(t)
}

func TestByCommunity_ZeroLimitStillClears(t *testing.T) {
	svc, m := newSvc()
	m.mm.On("IsMember", mock.Anything, "c1", "u1").Return(true, nil)
	m.cnt.On("Clear", mock.Anything, "u1", "c1").Return()
	m.is.On("ByCommunity", "u1", "c1").Return(paginate.Source[domain.InboxEntry](sliceSource[domain.InboxEntry]{}))

	page, err := svc.ByCommunity(context.Background(), "u1", "c1", paginate.Params{Limit: 0})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.True(t, page.HasMore)
	m.us.AssertNotCalled(t, "BatchGet", mock.Anything, mock.Anything)
}

// --- messages ---

func TestCreateMessage_FanOut(t *testing.T) {
	svc, m := newSvc()
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)
	m.ms.On("Put", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	m.is.On("SetRead", mock.Anything, "u2", "n1", false).Return(nil)
	m.pub.On("PublishMessage", mock.Anything, mock.MatchedBy(func(ev domain.MessageEvent) bool {
		return ev.NotificationID == "n1" && ev.Message.Text == "See you at 5"
	})).Return(nil)
	m.n.On("Notify", mock.Anything, mock.Anything).Return()

	msg, err := svc.CreateMessage(context.Background(), "u1", "n1", domain.CreateMessageRequest{Text: "See you at 5"})

	require.NoError(t, err)
	assert.Equal(t, "u1", msg.CreatorID)
	m.pub.AssertExpectations(t)
	m.is.AssertNotCalled(t, "SetRead", mock.Anything, "u1", mock.Anything, mock.Anything)
}

func TestCreateMessage_PublishFailureIsSwallowed(t *testing.T) {
	svc, m := newSvc()
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)
	m.ms.On("Put", mock.Anything, mock.Anything).Return(nil)
	m.is.On("SetRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("throttled"))
	m.pub.On("PublishMessage", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	m.n.On("Notify", mock.Anything, mock.Anything).Return()

	_, err := svc.CreateMessage(context.Background(), "u1", "n1", domain.CreateMessageRequest{Text: "hello"})

	require.NoError(t, err)
	m.n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestCreateMessage_StoreFailureStopsFanOut(t *testing.T) {
	svc, m := newSvc()
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)
	m.ms.On("Put", mock.Anything, mock.Anything).Return(errors.New("dynamo down"))

	_, err := svc.CreateMessage(context.Background(), "u1", "n1", domain.CreateMessageRequest{Text: "hello"})

	require.Error(t, err)
	m.pub.AssertNotCalled(t, "PublishMessage", mock.Anything, mock.Anything)
	m.n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestMessages_OutsiderForbidden(t *testing.T) {
	svc, m := newSvc()
	m.ns.On("Get", mock.Anything, "n1").Return(chat(), nil)

	_, err := svc.Messages(context.Background(), "u3", "n1", paginate.Params{Limit: 10})

	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
