package http

import (
	"github.com/sharinghood-api/internal/application/auth"
	"github.com/sharinghood-api/internal/application/booking"
	"github.com/sharinghood-api/internal/application/community"
	"github.com/sharinghood-api/internal/application/device"
	fileapp "github.com/sharinghood-api/internal/application/file"
	"github.com/sharinghood-api/internal/application/itemrequest"
	"github.com/sharinghood-api/internal/application/notification"
	"github.com/sharinghood-api/internal/application/post"
	"github.com/sharinghood-api/internal/application/session"
	"github.com/sharinghood-api/internal/application/thread"
	"github.com/sharinghood-api/internal/application/user"
	"github.com/sharinghood-api/internal/realtime"
	"github.com/sharinghood-api/internal/transport/http/handler"
	"github.com/sharinghood-api/internal/transport/http/middleware"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Sessions      session.Service
	Users         user.Service
	Auth          auth.Service
	Devices       device.Service
	Files         fileapp.Service
	Communities   community.Service
	Posts         post.Service
	Requests      itemrequest.Service
	Threads       thread.Service
	Bookings      booking.Service
	Notifications notification.Service

	Verifier middleware.TokenVerifier
	Hub      *realtime.Hub

	// HealthChecks back GET /v1/health-check/ready.
	HealthChecks map[string]handler.Check
}
