package domain

import "time"

type PartyStatus string

const (
	PartyOpen    PartyStatus = "OPEN"
	PartyClosed  PartyStatus = "CLOSED"
	PartyExpired PartyStatus = "EXPIRED"
)

type Party struct {
	ID        string      `bson:"_id" json:"id"`
	BranchID  string      `bson:"branch_id" json:"branch_id"`
	TableID   string      `bson:"table_id" json:"table_id"`
	PIN       string      `bson:"pin" json:"pin"`
	Status    PartyStatus `bson:"status" json:"status"`
	CreatedBy string      `bson:"created_by" json:"created_by"`
	Members   []string    `bson:"members" json:"members"`
	ExpiresAt time.Time   `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	ClosedAt  *time.Time  `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
}

// EffectiveStatus evaluates expiry lazily: an OPEN party past ExpiresAt reads as EXPIRED.
func (p *Party) EffectiveStatus(now time.Time) PartyStatus {
	if p.Status == PartyOpen && !now.Before(p.ExpiresAt) {
		return PartyExpired
	}
	return p.Status
}

func (p *Party) Active(now time.Time) bool {
	return p.EffectiveStatus(now) == PartyOpen
}

func (p *Party) HasMember(sessionID string) bool {
	for _, m := range p.Members {
		if m == sessionID {
			return true
		}
	}
	return false
}
