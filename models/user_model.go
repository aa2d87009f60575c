package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'learner'" json:"role"`

	SubscriptionActive bool       `gorm:"default:false" json:"subscription_active"`
	TrialEndsAt        *time.Time `json:"trial_ends_at"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MayUsePlatform reports whether the platform gate is open for this user:
// an active subscription, or a trial period that has not yet ended.
func (u *User) MayUsePlatform() bool {
	if u.SubscriptionActive {
		return true
	}
	return u.TrialEndsAt != nil && u.TrialEndsAt.After(time.Now())
}
