package session

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"
	"github.com/stretchr/testify/require"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/platform/sqlite"
	"github.com/avelychko/lexiq/internal/store"
)

// testEnv bundles an in-memory database with the stores the engine needs.
type testEnv struct {
	db       *sql.DB
	catalog  store.WordCatalog
	progress store.ProgressStore
	sessions store.SessionStore
	listID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:       db,
		catalog:  sqlite.NewCatalogStore(db, nil),
		progress: sqlite.NewProgressStore(db, nil),
		sessions: sqlite.NewSessionStore(db, nil),
		listID:   uuid.New(),
	}

	require.NoError(t, env.catalog.CreateList(context.Background(), &store.WordList{
		ID:        env.listID,
		Name:      "test list",
		CreatedAt: time.Now().UTC(),
	}))

	return env
}

// addWord inserts a word with an explicit creation time so catalog order is
// deterministic in tests.
func (env *testEnv) addWord(t *testing.T, term, lang, example string, createdAt time.Time) *domain.Word {
	t.Helper()

	word := &domain.Word{
		ID:           uuid.New(),
		ListID:       env.listID,
		Term:         term,
		Translation:  term + " (translated)",
		Example:      example,
		LanguageCode: lang,
		CreatedAt:    createdAt,
	}
	require.NoError(t, env.catalog.AddWords(context.Background(), []*domain.Word{word}))
	return word
}

// makeDue converts a word into a due review: rated once, not new, due in the
// past.
func (env *testEnv) makeDue(t *testing.T, wordID uuid.UUID, due time.Time) {
	t.Helper()

	ctx := context.Background()
	p, err := env.progress.GetOrCreate(ctx, wordID)
	require.NoError(t, err)

	stability := 2.5
	difficulty := 5.0
	lastReview := due.Add(-48 * time.Hour)

	p.IsNew = false
	p.State = flux.Review
	p.Step = nil
	p.Stability = &stability
	p.Difficulty = &difficulty
	p.Due = due
	p.LastReview = &lastReview
	p.Reps = 1
	p.TotalReviews = 1
	p.CorrectReviews = 1
	p.UpdatedAt = time.Now().UTC()

	require.NoError(t, env.progress.Update(ctx, p))
}

func defaultPolicy(listID uuid.UUID) Policy {
	return Policy{
		ListID:      listID,
		NewLimit:    50,
		ReviewLimit: 200,
		Mode:        ModeMixed,
		Order:       OrderSequential,
	}
}

// flakyProgressStore wraps a ProgressStore and fails Update a configured
// number of times before passing calls through.
type flakyProgressStore struct {
	store.ProgressStore
	failures int
	err      error
}

func (f *flakyProgressStore) Update(ctx context.Context, progress *domain.WordProgress) error {
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	return f.ProgressStore.Update(ctx, progress)
}

// vanishingCatalog wraps a WordCatalog and reports one word as missing.
type vanishingCatalog struct {
	store.WordCatalog
	missing uuid.UUID
}

func (v *vanishingCatalog) GetWord(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	if id == v.missing {
		return nil, store.ErrWordNotFound
	}
	return v.WordCatalog.GetWord(ctx, id)
}
