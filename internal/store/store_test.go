package store_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nodelearn/nodelearn/internal/db"
	"github.com/nodelearn/nodelearn/internal/db/migrations"
	"github.com/nodelearn/nodelearn/internal/dbpool"
	"github.com/nodelearn/nodelearn/internal/models"
	"github.com/nodelearn/nodelearn/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupSessionStore creates a SessionStore plus a fresh owner ref whose rows
// are cleaned up after the test. Owner isolation keeps tests independent on
// a shared database.
func setupSessionStore(t *testing.T) (*store.SessionStore, string) {
	t.Helper()

	env := getTestEnv(t)
	ownerRef := "test-owner-" + uuid.NewString()

	t.Cleanup(func() {
		ctx := context.Background()
		env.pool.Exec(ctx, "DELETE FROM archive_entries WHERE owner_ref = $1", ownerRef) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(ctx, "DELETE FROM sessions WHERE owner_ref = $1", ownerRef)        //nolint:errcheck // best-effort cleanup
	})

	return store.NewSessionStore(store.Base{Pool: env.pool, Log: env.log}), ownerRef
}

// closedSession builds an ended session with a root plus extraTopics
// children, ready for Persist.
func closedSession(ownerRef, seed string, extraTopics int, dwellMs int64, endedAt time.Time) *models.Session {
	rootID := uuid.NewString()
	snap := models.TreeSnapshot{
		RootID: rootID,
		Nodes: []models.SnapshotNode{{
			ID:    rootID,
			Topic: models.Topic{Norm: strings.ToLower(seed), Display: seed},
		}},
	}

	for i := range extraTopics {
		child := models.SnapshotNode{
			ID:       uuid.NewString(),
			Topic:    models.Topic{Norm: fmt.Sprintf("%s child %d", strings.ToLower(seed), i), Display: fmt.Sprintf("%s Child %d", seed, i)},
			ParentID: rootID,
		}
		snap.Nodes[0].ChildIDs = append(snap.Nodes[0].ChildIDs, child.ID)
		snap.Nodes = append(snap.Nodes, child)
	}

	ended := endedAt

	return &models.Session{
		ID:           models.NewSessionID(),
		OwnerRef:     ownerRef,
		StartedAt:    endedAt.Add(-time.Minute),
		EndedAt:      &ended,
		Tree:         snap,
		PerNodeDwell: map[string]int64{rootID: dwellMs},
		Tags:         []string{"test"},
	}
}
