package usecase

import (
	"context"

	"github.com/xavierca1/leadgate/internal/entity"
)

type LeadRepository interface {
	AppendIf(ctx context.Context, lead *entity.Lead, guard func([]entity.Lead) error) error
	LoadAll(ctx context.Context) ([]entity.Lead, error)
	UpdateFlags(ctx context.Context, key string, contacted, converted *bool) error
	Delete(ctx context.Context, key string) error
	ExportCSV(ctx context.Context) ([]byte, error)
}

// Notifier is fire-and-forget: Notify must return without waiting for delivery.
type Notifier interface {
	Notify(name, email string)
}

// ChallengeSource issues human-verification questions.
type ChallengeSource interface {
	NewChallenge() entity.Challenge
}
