package dynamo

// Attribute names used in update expressions across repos.
const (
	fieldEnable           = "enable"
	fieldToken            = "token"
	fieldIsActive         = "is_active"
	fieldIsRead           = "is_read"
	fieldStatus           = "status"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)
