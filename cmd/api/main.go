package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/sharinghood-api/internal/application/activity"
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
	"github.com/sharinghood-api/internal/config"
	"github.com/sharinghood-api/internal/infrastructure/dynamo"
	"github.com/sharinghood-api/internal/infrastructure/fcm"
	jwtinfra "github.com/sharinghood-api/internal/infrastructure/jwt"
	"github.com/sharinghood-api/internal/infrastructure/redis"
	s3infra "github.com/sharinghood-api/internal/infrastructure/s3"
	"github.com/sharinghood-api/internal/infrastructure/smtp"
	"github.com/sharinghood-api/internal/infrastructure/sns"
	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/queue"
	"github.com/sharinghood-api/internal/realtime"
	transporthttp "github.com/sharinghood-api/internal/transport/http"
	"github.com/sharinghood-api/internal/transport/http/handler"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if envErr != nil {
		logging.Info().Msg("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("aws config")
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	t := cfg.DynamoTables
	userRepo := dynamo.NewUserRepo(dynamoClient, t.Users)
	sessionRepo := dynamo.NewSessionRepo(dynamoClient, t.Sessions)
	deviceRepo := dynamo.NewDeviceRepo(dynamoClient, t.Devices)
	fileRepo := dynamo.NewFileRepo(dynamoClient, t.Files)
	verificationRepo := dynamo.NewVerificationRepo(dynamoClient, t.UserVerifications)
	communityRepo := dynamo.NewCommunityRepo(dynamoClient, t.Communities, t.Members)
	memberRepo := dynamo.NewMemberRepo(dynamoClient, t.Members)
	postRepo := dynamo.NewPostRepo(dynamoClient, t.Posts)
	requestRepo := dynamo.NewRequestRepo(dynamoClient, t.Requests)
	threadRepo := dynamo.NewThreadRepo(dynamoClient, t.Threads)
	bookingRepo := dynamo.NewBookingRepo(dynamoClient, t.Bookings)
	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, t.Notifications, t.Inbox, t.Bookings)
	inboxRepo := dynamo.NewInboxRepo(dynamoClient, t.Inbox)
	messageRepo := dynamo.NewMessageRepo(dynamoClient, t.Messages)

	// Redis is a cache and a fan-out channel; the API starts without it.
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()
	if err := redis.Ping(ctx, redisClient); err != nil {
		logging.Warn().Err(err).Msg("redis unreachable, unread counts and live messages degraded")
	}
	counter := redis.NewNotificationCounter(redisClient, redis.CounterConfig{
		FailureThreshold: uint32(cfg.CounterBreakerFails),
		OpenTimeout:      cfg.CounterBreakerWindow,
		OpTimeout:        cfg.Redis.OpTimeout,
	})
	publisher := redis.NewPublisher(redisClient)

	hub := realtime.NewHub()
	go func() {
		// Resubscribe until shutdown; a dropped connection only pauses live delivery.
		sub := redis.NewSubscriber(redisClient)
		for {
			if err := sub.Run(ctx, hub.Dispatch); err != nil {
				logging.Warn().Err(err).Msg("message subscription ended, retrying")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}()

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("jwt provider")
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.AWSRegion, cfg.AWSEndpointURL)
	mailer := smtp.NewMailer(cfg)
	smsSender := sns.NewSender(awsCfg, cfg.SNSRegion, cfg.AWSEndpointURL)

	// Side effects: counter bump inline, deliveries through the queue.
	q, err := queue.New(queue.Config{
		MaxRetries:      cfg.QueueMaxRetries,
		InitialInterval: cfg.QueueRetryInterval,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("side-effect queue")
	}
	delivererDeps := activity.DelivererDeps{
		Users:       userRepo,
		Communities: communityRepo,
		Devices:     deviceRepo,
		Mailer:      mailer,
		SMS:         smsSender,
	}
	if cfg.FirebaseCredentialsPath != "" {
		pusher, err := fcm.NewPusher(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logging.Warn().Err(err).Msg("push notifications disabled")
		} else {
			delivererDeps.Pusher = pusher
		}
	}
	activity.NewDeliverer(delivererDeps).Register(q)
	notifier := activity.NewNotifier(counter, q)

	// The queue outlives the signal context; it is closed after the server
	// has drained, so deliveries from in-flight requests still run.
	queueDone := q.Start()

	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo:     sessionRepo,
		UserRepo:        userRepo,
		DeviceRepo:      deviceRepo,
		JWTProvider:     jwtProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	deps := &transporthttp.Deps{
		Sessions: sessionSvc,
		Users: user.NewService(user.ServiceDeps{
			UserRepo:    userRepo,
			SessionRepo: sessionRepo,
			Sessions:    sessionSvc,
		}),
		Auth: auth.NewService(auth.ServiceDeps{
			VerificationRepo: verificationRepo,
			UserRepo:         userRepo,
			Sessions:         sessionSvc,
			Mailer:           mailer,
			SMS:              smsSender,
		}),
		Devices: device.NewService(deviceRepo),
		Files:   fileapp.NewService(s3Store, fileRepo),
		Communities: community.NewService(community.ServiceDeps{
			CommunityRepo: communityRepo,
			MemberRepo:    memberRepo,
			UserRepo:      userRepo,
			Counter:       counter,
		}),
		Posts: post.NewService(post.ServiceDeps{PostRepo: postRepo, MemberRepo: memberRepo}),
		Requests: itemrequest.NewService(itemrequest.ServiceDeps{
			RequestRepo: requestRepo,
			MemberRepo:  memberRepo,
			Notifier:    notifier,
		}),
		Threads: thread.NewService(thread.ServiceDeps{
			ThreadRepo:  threadRepo,
			PostRepo:    postRepo,
			RequestRepo: requestRepo,
			MemberRepo:  memberRepo,
			Notifier:    notifier,
		}),
		Bookings: booking.NewService(booking.ServiceDeps{
			BookingRepo:      bookingRepo,
			PostRepo:         postRepo,
			NotificationRepo: notificationRepo,
			InboxRepo:        inboxRepo,
			MemberRepo:       memberRepo,
			Notifier:         notifier,
		}),
		Notifications: notification.NewService(notification.ServiceDeps{
			NotificationRepo: notificationRepo,
			InboxRepo:        inboxRepo,
			MessageRepo:      messageRepo,
			PostRepo:         postRepo,
			RequestRepo:      requestRepo,
			UserRepo:         userRepo,
			MemberRepo:       memberRepo,
			Counter:          counter,
			Publisher:        publisher,
			Notifier:         notifier,
		}),
		Verifier: jwtProvider,
		Hub:      hub,
		HealthChecks: map[string]handler.Check{
			"redis": func(ctx context.Context) error { return redis.Ping(ctx, redisClient) },
			"dynamodb": func(ctx context.Context) error {
				_, err := dynamoClient.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.Users)})
				return err
			},
		},
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.AppPort),
		Handler:           transporthttp.NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: websocket subscriptions are long-lived.
	}

	go func() {
		logging.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("forced shutdown")
	}
	if err := q.Close(); err != nil {
		logging.Warn().Err(err).Msg("close side-effect queue")
	}
	<-queueDone
	logging.Info().Msg("server stopped")
}
