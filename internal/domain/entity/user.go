package entity

import (
	"time"
)

const (
	RoleJobSeeker = "job_seeker"
	RoleEmployer  = "employer"
	RoleService   = "service"
	RoleAdmin     = "admin"
)

// User is owned by the user-management subsystem; the chat core only reads it.
type User struct {
	ID          string `json:"id" firestore:"id"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"display_name" firestore:"displayName"`
	Role        string `json:"role" firestore:"role"`

	AvatarURL string `json:"avatar_url,omitempty" firestore:"avatarURL,omitempty"`
	PushToken string `json:"-" firestore:"pushToken,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Profile is the subset of user fields safe to hand to chat peers.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
