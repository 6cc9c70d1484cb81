// Package backend selects and builds the data store the services run on.
package backend

import (
	"context"

	"helpinghand/internal/donation"
)

// Store bundles every repository port the donation services need. Both the
// SQLite repository and the in-memory store satisfy it.
type Store interface {
	donation.CampaignRepository
	donation.PaymentRepository
	donation.IntentRepository
	donation.UserRepository
	donation.CategoryRepository
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the built store and an optional cleanup function.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateStore(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds what store creation needs.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
