package models

import "time"

// Admin is an operator account with access to the verification and check-in
// surfaces. Passwords are stored bcrypt-hashed, never in clear.
type Admin struct {
	ID           string     `bson:"_id" json:"id"`
	Username     string     `bson:"username" json:"username"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Role         string     `bson:"role" json:"role"`
	LastLoginAt  *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
}
