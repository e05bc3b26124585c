package domain

// Verification types stored as the sort key of the verifications table.
const (
	VerificationOTP   = "otp"
	VerificationPhone = "phone"
	// VerificationPasswordReset is written when a recovery code is accepted
	// and consumed by the password change that follows it.
	VerificationPasswordReset = "password_reset"
)

// UserVerification stores a one-time code for password recovery or phone confirmation.
// ExpiresAt is Unix seconds and doubles as the DynamoDB TTL attribute.
type UserVerification struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Type      string `json:"type" dynamodbav:"type"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
	Attempts  int    `json:"attempts" dynamodbav:"attempts"`
}
