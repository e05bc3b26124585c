package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/sharinghood-api/internal/config"
	"github.com/sharinghood-api/internal/transport/http/handler"
	appmiddleware "github.com/sharinghood-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(appmiddleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.Verifier)

	// 5 requests/second, burst of 10, on public endpoints that check credentials or send mail.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, cfg.TrustProxy)

	healthH := handler.NewHealthHandler(deps.HealthChecks)
	sessionH := handler.NewSessionHandler(deps.Sessions)
	userH := handler.NewUserHandler(deps.Users)
	pwH := handler.NewPasswordRecoveryHandler(deps.Auth)
	phoneH := handler.NewPhoneConfirmHandler(deps.Auth)
	deviceH := handler.NewDeviceHandler(deps.Devices)
	fileH := handler.NewFileHandler(deps.Files)
	communityH := handler.NewCommunityHandler(deps.Communities)
	postH := handler.NewPostHandler(deps.Posts)
	requestH := handler.NewRequestHandler(deps.Requests)
	threadH := handler.NewThreadHandler(deps.Threads)
	bookingH := handler.NewBookingHandler(deps.Bookings)
	notifH := handler.NewNotificationHandler(deps.Notifications)
	subH := handler.NewSubscribeHandler(deps.Verifier, deps.Notifications, deps.Hub, cfg.AllowedOrigins)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// public
		r.Get("/health-check/ready", healthH.Ready)
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// The websocket handshake carries its token in the query string.
		r.Get("/notifications/{id}/subscribe", subH.Subscribe)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)
			r.Delete("/users/me", userH.DeleteMe)
			r.Put("/users/me/password", userH.ChangePassword)
			r.Put("/password-recovery/change-password", pwH.ChangePassword)
			r.With(sensitiveRL.Limit).Post("/confirm-phone/{action}", phoneH.Action)

			r.Get("/devices", deviceH.List)
			r.Get("/devices/{id}", deviceH.Get)
			r.Put("/devices/{id}", deviceH.Update)
			r.Delete("/devices/{id}", deviceH.Delete)

			r.Post("/files", fileH.Upload)
			r.Post("/files/base64", fileH.UploadBase64)
			r.Get("/files/{id}", fileH.Get)

			r.Get("/communities", communityH.ListMine)
			r.Post("/communities", communityH.Create)
			r.Get("/communities/code/{code}", communityH.FindByCode)
			r.Post("/communities/code/{code}/join", communityH.Join)
			r.Route("/communities/{id}", func(r chi.Router) {
				r.Get("/members", communityH.Members)
				r.Get("/posts", postH.ByCommunity)
				r.Get("/requests", requestH.ByCommunity)
				r.Get("/bookings", bookingH.Mine)
				r.Get("/notifications", notifH.ByCommunity)
			})

			r.Post("/posts", postH.Create)
			r.Get("/posts/{id}", postH.Get)
			r.Put("/posts/{id}", postH.Update)
			r.Delete("/posts/{id}", postH.Inactivate)

			r.Post("/requests", requestH.Create)
			r.Get("/requests/{id}", requestH.Get)
			r.Delete("/requests/{id}", requestH.Inactivate)

			r.Get("/threads", threadH.ByParent)
			r.Post("/threads", threadH.Create)

			r.Post("/bookings", bookingH.Create)
			r.Put("/bookings/{id}", bookingH.UpdateStatus)

			r.Post("/notifications", notifH.Create)
			r.Get("/notifications/{id}", notifH.Get)
			r.Get("/notifications/{id}/messages", notifH.Messages)
			r.Post("/notifications/{id}/messages", notifH.CreateMessage)
		})
	})

	return r
}
