package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadgate/internal/entity"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) AppendIf(ctx context.Context, lead *entity.Lead, guard func([]entity.Lead) error) error {
	args := m.Called(ctx, lead, guard)
	return args.Error(0)
}

func (m *MockLeadRepository) LoadAll(ctx context.Context) ([]entity.Lead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateFlags(ctx context.Context, key string, contacted, converted *bool) error {
	args := m.Called(ctx, key, contacted, converted)
	return args.Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockLeadRepository) ExportCSV(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(name, email string) {
	m.Called(name, email)
}

type fixedChallenges struct {
	next []entity.Challenge
}

func (f *fixedChallenges) NewChallenge() entity.Challenge {
	c := f.next[0]
	if len(f.next) > 1 {
		f.next = f.next[1:]
	}
	return c
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }
