package store

import (
	"context"

	"github.com/daisuketominaga/shinsei/internal/domain"
)

// HistoryStore persists search results for later review and sharing.
// Mutations are keyed by record id and are last-write-wins.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]domain.HistoryRecord, error)
	Upsert(ctx context.Context, rec *domain.HistoryRecord) (*domain.HistoryRecord, error)
	UpdateCheckedSteps(ctx context.Context, id string, steps []int) (*domain.HistoryRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Close() error
}
