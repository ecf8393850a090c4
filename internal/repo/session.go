package repo

import (
	"context"

	"github.com/Beka01247/kwaaka-table/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.GuestSession) error
	GetByID(ctx context.Context, id string) (*domain.GuestSession, error)
	MarkVerified(ctx context.Context, id string, phone string) error
}
