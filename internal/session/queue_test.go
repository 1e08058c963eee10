package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelychko/lexiq/internal/domain"
)

func item(term string) *domain.StudyItem {
	return &domain.StudyItem{Word: &domain.Word{Term: term}}
}

func items(prefix string, n int) []*domain.StudyItem {
	out := make([]*domain.StudyItem, n)
	for i := range out {
		out[i] = item(fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}

func terms(queue []*domain.StudyItem) []string {
	out := make([]string, len(queue))
	for i, it := range queue {
		out[i] = it.Word.Term
	}
	return out
}

func TestInterleave(t *testing.T) {
	t.Parallel()

	t.Run("five reviews then one new", func(t *testing.T) {
		t.Parallel()

		got := interleave(items("r", 12), items("n", 3))
		want := []string{
			"r0", "r1", "r2", "r3", "r4", "n0",
			"r5", "r6", "r7", "r8", "r9", "n1",
			"r10", "r11", "n2",
		}
		assert.Equal(t, want, terms(got))
	})

	t.Run("exhausted reviews leave a contiguous new tail", func(t *testing.T) {
		t.Parallel()

		got := interleave(items("r", 3), items("n", 4))
		want := []string{"r0", "r1", "r2", "n0", "n1", "n2", "n3"}
		assert.Equal(t, want, terms(got))
	})

	t.Run("exhausted news leave a contiguous review tail", func(t *testing.T) {
		t.Parallel()

		got := interleave(items("r", 13), items("n", 1))
		want := []string{
			"r0", "r1", "r2", "r3", "r4", "n0",
			"r5", "r6", "r7", "r8", "r9",
			"r10", "r11", "r12",
		}
		assert.Equal(t, want, terms(got))
	})

	t.Run("either side may be empty", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []string{"n0", "n1"}, terms(interleave(nil, items("n", 2))))
		assert.Equal(t, []string{"r0"}, terms(interleave(items("r", 1), nil)))
		assert.Empty(t, interleave(nil, nil))
	})
}

func TestQueueBuilderBuild(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("mixed mode interleaves due reviews before new words", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		due := env.addWord(t, "alt", "de", "", base)
		fresh := env.addWord(t, "neu", "de", "", base.Add(time.Minute))
		env.makeDue(t, due.ID, time.Now().Add(-time.Hour).UTC())

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, reason, err := builder.Build(ctx, defaultPolicy(env.listID))
		require.NoError(t, err)

		assert.Equal(t, ReasonNone, reason)
		require.Len(t, queue, 2)
		assert.Equal(t, due.ID, queue[0].Word.ID)
		assert.False(t, queue[0].IsNewWord)
		assert.Equal(t, fresh.ID, queue[1].Word.ID)
		assert.True(t, queue[1].IsNewWord)
	})

	t.Run("every queue item carries a progress row", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.addWord(t, "eins", "de", "", base)
		env.addWord(t, "zwei", "de", "", base.Add(time.Minute))

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, _, err := builder.Build(ctx, defaultPolicy(env.listID))
		require.NoError(t, err)

		require.Len(t, queue, 2)
		for _, it := range queue {
			require.NotNil(t, it.Progress)
			assert.Equal(t, it.Word.ID, it.Progress.WordID)
			assert.True(t, it.Progress.IsNew)
		}
	})

	t.Run("new limit truncates the new side", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		for i := 0; i < 5; i++ {
			env.addWord(t, fmt.Sprintf("w%d", i), "de", "", base.Add(time.Duration(i)*time.Minute))
		}

		policy := defaultPolicy(env.listID)
		policy.NewLimit = 2

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, _, err := builder.Build(ctx, policy)
		require.NoError(t, err)
		assert.Len(t, queue, 2)
	})

	t.Run("new-only mode excludes due reviews", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		due := env.addWord(t, "alt", "de", "", base)
		env.addWord(t, "neu", "de", "", base.Add(time.Minute))
		env.makeDue(t, due.ID, time.Now().Add(-time.Hour).UTC())

		policy := defaultPolicy(env.listID)
		policy.Mode = ModeNewOnly

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, _, err := builder.Build(ctx, policy)
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.True(t, queue[0].IsNewWord)
	})

	t.Run("review-only mode excludes new words", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		due := env.addWord(t, "alt", "de", "", base)
		env.addWord(t, "neu", "de", "", base.Add(time.Minute))
		env.makeDue(t, due.ID, time.Now().Add(-time.Hour).UTC())

		policy := defaultPolicy(env.listID)
		policy.Mode = ModeReviewOnly

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, _, err := builder.Build(ctx, policy)
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.False(t, queue[0].IsNewWord)
	})

	t.Run("words due in the future are neither due nor new", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		w := env.addWord(t, "später", "de", "", base)
		env.makeDue(t, w.ID, time.Now().Add(48*time.Hour).UTC())

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, reason, err := builder.Build(ctx, defaultPolicy(env.listID))
		require.NoError(t, err)

		assert.Empty(t, queue)
		assert.Equal(t, ReasonNothingDue, reason)
	})

	t.Run("empty candidate set reports nothing due", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, reason, err := builder.Build(ctx, defaultPolicy(env.listID))
		require.NoError(t, err)

		assert.Empty(t, queue)
		assert.Equal(t, ReasonNothingDue, reason)
	})

	t.Run("filter excluding every candidate reports no supported words", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.addWord(t, "bonjour", "fr", "", base)

		policy := defaultPolicy(env.listID)
		policy.Filter = func(word *domain.Word) bool {
			return word.LanguageCode == "de"
		}

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, reason, err := builder.Build(ctx, policy)
		require.NoError(t, err)

		assert.Empty(t, queue)
		assert.Equal(t, ReasonNoSupportedWords, reason)
	})

	t.Run("filter keeps matching words", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		env.addWord(t, "bonjour", "fr", "", base)
		keep := env.addWord(t, "hallo", "de", "", base.Add(time.Minute))

		policy := defaultPolicy(env.listID)
		policy.Filter = func(word *domain.Word) bool {
			return word.LanguageCode == "de"
		}

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, reason, err := builder.Build(ctx, policy)
		require.NoError(t, err)

		assert.Equal(t, ReasonNone, reason)
		require.Len(t, queue, 1)
		assert.Equal(t, keep.ID, queue[0].Word.ID)
	})

	t.Run("vanished word is skipped, not fatal", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		gone := env.addWord(t, "weg", "de", "", base)
		stays := env.addWord(t, "da", "de", "", base.Add(time.Minute))

		catalog := &vanishingCatalog{WordCatalog: env.catalog, missing: gone.ID}
		builder := NewQueueBuilder(catalog, env.progress, nil)

		queue, reason, err := builder.Build(ctx, defaultPolicy(env.listID))
		require.NoError(t, err)

		assert.Equal(t, ReasonNone, reason)
		require.Len(t, queue, 1)
		assert.Equal(t, stays.ID, queue[0].Word.ID)
	})

	t.Run("random order preserves the item multiset", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		want := make(map[uuid.UUID]bool)
		for i := 0; i < 10; i++ {
			w := env.addWord(t, fmt.Sprintf("w%d", i), "de", "", base.Add(time.Duration(i)*time.Minute))
			want[w.ID] = true
		}

		policy := defaultPolicy(env.listID)
		policy.Order = OrderRandom

		builder := NewQueueBuilder(env.catalog, env.progress, nil)
		queue, _, err := builder.Build(ctx, policy)
		require.NoError(t, err)
		require.Len(t, queue, len(want))

		got := make(map[uuid.UUID]bool)
		for _, it := range queue {
			got[it.Word.ID] = true
		}
		assert.Equal(t, want, got)
	})

	t.Run("malformed policy is rejected", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		builder := NewQueueBuilder(env.catalog, env.progress, nil)

		policy := defaultPolicy(env.listID)
		policy.Mode = Mode("cramming")

		_, _, err := builder.Build(ctx, policy)
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})
}
