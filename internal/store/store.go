// Package store provides PostgreSQL-backed persistence for closed sessions
// and their archive projections. Live sessions never touch the store; only
// the persist/read path does.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/dbpool"
	"github.com/nodelearn/nodelearn/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// storeErr classifies a database failure as the retryable
// models.ErrStoreUnavailable, preserving the underlying cause in the
// message. pgx.ErrNoRows passes through for callers that map it to a
// not-found error.
func storeErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	return fmt.Errorf("%w: %s: %v", models.ErrStoreUnavailable, op, err)
}
