package domain

import "time"

type User struct {
	UserID         string    `json:"id" dynamodbav:"user_id"`
	Email          string    `json:"email" dynamodbav:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	Name           string    `json:"name" dynamodbav:"name"`
	ImageURL       string    `json:"image_url,omitempty" dynamodbav:"image_url"`
	Phone          *string   `json:"phone,omitempty" dynamodbav:"phone"`
	PhoneConfirmed bool      `json:"phone_confirmed" dynamodbav:"phone_confirmed"`
	EmailNotify    bool      `json:"email_notify" dynamodbav:"email_notify"`
	Enable         bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Profile is the subset of a user other community members may see.
type Profile struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{UserID: u.UserID, Name: u.Name, ImageURL: u.ImageURL}
}

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
	Name        string  `json:"name" validate:"required,max=80"`
	Phone       *string `json:"phone" validate:"omitempty,e164"`
	EmailNotify *bool   `json:"email_notify"`
	DeviceUUID  *string `json:"device_uuid"`
}

type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=80"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
	Phone       *string `json:"phone" validate:"omitempty,e164"`
	EmailNotify *bool   `json:"email_notify"`
}
