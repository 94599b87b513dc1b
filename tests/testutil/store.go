package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedProcess inserts a tracked process with the given movement count and
// returns it as stored.
func SeedProcess(t *testing.T, s store.Store, number, email string, count int) *model.TrackedProcess {
	t.Helper()

	p, _, err := s.CreateProcess(context.Background(), model.TrackedProcess{
		Number:            number,
		Email:             email,
		LastMovementCount: count,
		CreatedAt:         time.Now(),
	})
	if err != nil {
		t.Fatalf("seeding process %s: %v", number, err)
	}
	return p
}
