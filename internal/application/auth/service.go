package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sharinghood-api/internal/application/session"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/infrastructure/smtp"
	"github.com/sharinghood-api/internal/logging"
	pkgtoken "github.com/sharinghood-api/internal/pkg/token"
)

const (
	otpTTL = 15 * time.Minute
	// maxOTPAttempts wrong codes delete the pending verification.
	maxOTPAttempts = 5
)

type PasswordRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ValidateOTPRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	OTP        string  `json:"otp" validate:"required,len=6,numeric"`
	DeviceUUID *string `json:"device_uuid"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type PhoneOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

type Service interface {
	RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error
	ValidateOTP(ctx context.Context, req ValidateOTPRequest) (*session.LoginResult, error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
	RequestPhoneConfirmation(ctx context.Context, userID string) error
	ValidatePhoneOTP(ctx context.Context, userID, otp string) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.UserVerification) error
	Get(ctx context.Context, userID, verType string) (*domain.UserVerification, error)
	Delete(ctx context.Context, userID, verType string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStarter interface {
	Start(ctx context.Context, u *domain.User, deviceUUID *string) (*session.LoginResult, error)
}

type smsSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

type service struct {
	verificationRepo verificationStore
	userRepo         userStore
	sessions         sessionStarter
	mailer           smtp.Mailer
	sms              smsSender
}

type ServiceDeps struct {
	VerificationRepo verificationStore
	UserRepo         userStore
	Sessions         sessionStarter
	Mailer           smtp.Mailer
	SMS              smsSender
}

func NewService(deps ServiceDeps) Service {
	return &service{
		verificationRepo: deps.VerificationRepo,
		userRepo:         deps.UserRepo,
		sessions:         deps.Sessions,
		mailer:           deps.Mailer,
		sms:              deps.SMS,
	}
}

// RequestPasswordRecovery mails a one-time code. Unknown emails succeed silently
// so the endpoint cannot be used to probe for accounts.
func (s *service) RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		logging.Ctx(ctx).Info().Msg("password recovery for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	otp, err := s.issue(ctx, u.UserID, domain.VerificationOTP)
	if err != nil {
		return err
	}
	subject, body, err := smtp.Render(smtp.TplPasswordRecovery, smtp.TemplateData{RecipientName: u.Name, Text: otp})
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, subject, body)
}

func (s *service) ValidateOTP(ctx context.Context, req ValidateOTPRequest) (*session.LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := s.consume(ctx, u.UserID, domain.VerificationOTP, req.OTP); err != nil {
		return nil, err
	}
	grant := &domain.UserVerification{
		UserID:    u.UserID,
		Type:      domain.VerificationPasswordReset,
		ExpiresAt: time.Now().Add(otpTTL).Unix(),
	}
	if err := s.verificationRepo.Put(ctx, grant); err != nil {
		return nil, err
	}
	return s.sessions.Start(ctx, u, req.DeviceUUID)
}

// ChangePassword sets a new password without the current one. It needs the
// reset grant left by ValidateOTP, so an ordinary session cannot use it.
func (s *service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	grant, err := s.verificationRepo.Get(ctx, userID, domain.VerificationPasswordReset)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no validated recovery code: %w", domain.ErrForbidden)
	}
	if err != nil {
		return err
	}
	if grant.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("recovery code expired: %w", domain.ErrForbidden)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}
	if err := s.verificationRepo.Delete(ctx, userID, domain.VerificationPasswordReset); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("failed to delete reset grant")
	}
	return nil
}

func (s *service) RequestPhoneConfirmation(ctx context.Context, userID string) error {
	if s.sms == nil {
		return fmt.Errorf("sms is not configured: %w", domain.ErrBadRequest)
	}
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Phone == nil || *u.Phone == "" {
		return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
	}
	otp, err := s.issue(ctx, userID, domain.VerificationPhone)
	if err != nil {
		return err
	}
	return s.sms.SendSMS(ctx, *u.Phone, "Your Sharinghood verification code: "+otp)
}

func (s *service) ValidatePhoneOTP(ctx context.Context, userID, otp string) error {
	if err := s.consume(ctx, userID, domain.VerificationPhone, otp); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"phone_confirmed": true})
}

func (s *service) issue(ctx context.Context, userID, verType string) (string, error) {
	otp, err := pkgtoken.NewOTP()
	if err != nil {
		return "", err
	}
	v := &domain.UserVerification{
		UserID:    userID,
		Type:      verType,
		Code:      otp,
		ExpiresAt: time.Now().Add(otpTTL).Unix(),
	}
	if err := s.verificationRepo.Put(ctx, v); err != nil {
		return "", err
	}
	return otp, nil
}

// consume checks code against the stored verification and deletes it on
// success. Each wrong code is counted; the record is dropped at maxOTPAttempts.
func (s *service) consume(ctx context.Context, userID, verType, code string) error {
	v, err := s.verificationRepo.Get(ctx, userID, verType)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(v.Code), []byte(code)) != 1 {
		s.countFailure(ctx, v)
		return fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	}
	if v.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("OTP expired: %w", domain.ErrUnauthorized)
	}
	if err := s.verificationRepo.Delete(ctx, userID, verType); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Str("type", verType).Msg("failed to delete verification record")
	}
	return nil
}

func (s *service) countFailure(ctx context.Context, v *domain.UserVerification) {
	v.Attempts++
	var err error
	if v.Attempts >= maxOTPAttempts {
		err = s.verificationRepo.Delete(ctx, v.UserID, v.Type)
	} else {
		err = s.verificationRepo.Put(ctx, v)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", v.UserID).Str("type", v.Type).Msg("failed to record OTP attempt")
	}
}
