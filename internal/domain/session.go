package domain

import "time"

type GuestSession struct {
	ID          string    `bson:"_id" json:"id"`
	TableID     string    `bson:"table_id" json:"table_id"`
	BranchID    string    `bson:"branch_id" json:"branch_id"`
	Locale      string    `bson:"locale" json:"locale"`
	OTPRequired bool      `bson:"otp_required" json:"otp_required"`
	IsVerified  bool      `bson:"is_verified" json:"is_verified"`
	Phone       string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Secret      string    `bson:"secret" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
}

func (s *GuestSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
