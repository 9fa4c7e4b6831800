package models

import "strings"

// User is an admin identity. The password hash never leaves the server.
type User struct {
	Base
	Email        string `json:"email" db:"email" gorm:"type:text;not null;uniqueIndex:idx_user_email"`
	PasswordHash string `json:"-" db:"password_hash" gorm:"type:text;not null"`
	Name         string `json:"name" db:"name" gorm:"type:text;not null"`
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfilePatch is the partial update of the signed-in user.
type ProfilePatch struct {
	Name            *string `json:"name" validate:"omitnil,notblank,max=100"`
	Email           *string `json:"email" validate:"omitnil,notblank,email"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     *string `json:"newPassword" validate:"omitnil,min=8,max=72"`
}
