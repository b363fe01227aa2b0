package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleNormal UserRole = "normal"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleNormal
}

type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	FullName             string     `gorm:"size:150;not null" json:"full_name"`
	Username             string     `gorm:"size:60;uniqueIndex;not null" json:"username"`
	Email                string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	PasswordHash         string     `gorm:"size:255;not null" json:"-"`
	Role                 UserRole   `gorm:"size:20;not null" json:"role"`
	IsActive             bool       `gorm:"not null" json:"is_active"`
	ProfilePictureURL    string     `gorm:"size:255" json:"profile_picture_url"`
	ResetPasswordToken   *string    `gorm:"size:64;index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
