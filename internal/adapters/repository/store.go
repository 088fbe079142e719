// Package repository persists the bounded, newest-first detection history.
package repository

import (
	"context"

	"github.com/okian/wildwatch/internal/domain/model"
)

// Store provides read/write access to detection history.
type Store interface {
	// List returns history newest first. Unreadable data reads as empty.
	List(ctx context.Context) []model.DetectionRecord
	// Save prepends rec and drops records beyond capacity.
	Save(ctx context.Context, rec model.DetectionRecord) error
	// Clear removes all history. Clearing empty history is not an error.
	Clear(ctx context.Context) error
	// Stats aggregates the current history.
	Stats(ctx context.Context) model.StatsSnapshot
	// NewID returns a fresh record identifier.
	NewID() string
}
