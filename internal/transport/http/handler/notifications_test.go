package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
	"github.com/sharinghood-api/internal/realtime"
)

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) CreateChat(ctx context.Context, userID string, req domain.CreateNotificationRequest) (*domain.Notification, error) {
	args := m.Called(ctx, userID, req)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) Get(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, userID, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) ByCommunity(ctx context.Context, userID, communityID string, p paginate.Params) (*paginate.Page[domain.InboxItem], error) {
	args := m.Called(ctx, userID, communityID, p)
	if pg, _ := args.Get(0).(*paginate.Page[domain.InboxItem]); pg != nil {
		return pg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) Messages(ctx context.Context, userID, notificationID string, p paginate.Params) (*paginate.Page[domain.Message], error) {
	args := m.Called(ctx, userID, notificationID, p)
	if pg, _ := args.Get(0).(*paginate.Page[domain.Message]); pg != nil {
		return pg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) CreateMessage(ctx context.Context, userID, notificationID string, req domain.CreateMessageRequest) (*domain.Message, error) {
	args := m.Called(ctx, userID, notificationID, req)
	if msg, _ := args.Get(0).(*domain.Message); msg != nil {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationSvc) Authorize(ctx context.Context, userID, notificationID string) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

func TestCreateChat_RequestAndPostAreExclusive(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	h := NewNotificationHandler(svc)
	body := []byte(`{"community_id":"c1","recipient_id":"u2","post_id":"p1","request_id":"r1"}`)

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, bearerReq(t, p, http.MethodPost, "/v1/notifications", "u1", body))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateChat_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	req := domain.CreateNotificationRequest{CommunityID: "c1", RecipientID: "u2", PostID: "p1", Text: "is it free?"}
	svc.On("CreateChat", mock.Anything, "u1", req).
		Return(&domain.Notification{NotificationID: "n1", ParticipantIDs: []string{"u1", "u2"}}, nil)
	h := NewNotificationHandler(svc)
	body, _ := json.Marshal(req)

	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Create), rr, bearerReq(t, p, http.MethodPost, "/v1/notifications", "u1", body))

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestCreateMessage_EmptyText(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	h := NewNotificationHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodPost, "/v1/notifications/n1/messages", "u1", []byte(`{"text":""}`)), "n1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.CreateMessage), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInboxByCommunity_NotMember(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockNotificationSvc{}
	svc.On("ByCommunity", mock.Anything, "u1", "c1", paginate.Params{Limit: paginate.DefaultLimit}).Return(nil, domain.ErrForbidden)
	h := NewNotificationHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodGet, "/v1/communities/c1/notifications", "u1", nil), "c1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.ByCommunity), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertExpectations(t)
}

func newSubscribeServer(t *testing.T, svc *mockNotificationSvc, hub *realtime.Hub) (*httptest.Server, func(userID string) string) {
	t.Helper()
	p := newTestJWTProvider(t)
	h := NewSubscribeHandler(p, svc, hub, []string{"*"})
	r := chi.NewRouter()
	r.Get("/v1/notifications/{id}/subscribe", h.Subscribe)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, func(userID string) string {
		return wsURL + "/v1/notifications/n1/subscribe?token=" + signFor(t, p, userID)
	}
}

func TestSubscribe_ReceivesDispatchedMessages(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("Authorize", mock.Anything, "u1", "n1").Return(nil)
	hub := realtime.NewHub()
	_, url := newSubscribeServer(t, svc, hub)

	conn, _, err := websocket.DefaultDialer.Dial(url("u1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count("n1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Dispatch(domain.MessageEvent{NotificationID: "other", Message: domain.Message{Text: "not for you"}})
	hub.Dispatch(domain.MessageEvent{NotificationID: "n1", Message: domain.Message{MessageID: "m1", Text: "hello"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev domain.MessageEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "n1", ev.NotificationID)
	assert.Equal(t, "hello", ev.Message.Text)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count("n1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribe_NonParticipantRejected(t *testing.T) {
	svc := &mockNotificationSvc{}
	svc.On("Authorize", mock.Anything, "u3", "n1").Return(domain.ErrForbidden)
	hub := realtime.NewHub()
	_, url := newSubscribeServer(t, svc, hub)

	_, resp, err := websocket.DefaultDialer.Dial(url("u3"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Count("n1"))
}

func TestSubscribe_MissingToken(t *testing.T) {
	svc := &mockNotificationSvc{}
	srv, _ := newSubscribeServer(t, svc, realtime.NewHub())

	resp, err := http.Get(srv.URL + "/v1/notifications/n1/subscribe")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	svc.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything)
}
