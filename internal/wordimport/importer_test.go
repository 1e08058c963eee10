package wordimport

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelychko/lexiq/internal/platform/sqlite"
)

func openTestDB(t *testing.T) (*sql.DB, *sqlite.CatalogStore) {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, sqlite.NewCatalogStore(db, nil)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func importConfig(path string) Config {
	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.ListName = "travel words"
	cfg.LanguageCode = "de"
	return cfg
}

func TestImportCSV(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("imports rows into a new list", func(t *testing.T) {
		t.Parallel()

		db, catalog := openTestDB(t)
		path := writeCSV(t, "term,translation,example\n"+
			"haus,house,Das Haus ist groß\n"+
			"baum,tree,\n")

		importer := New(db, catalog, nil)
		result, err := importer.Import(ctx, importConfig(path))
		require.NoError(t, err)

		assert.Equal(t, 2, result.Imported)
		assert.Zero(t, result.Skipped)

		list, err := catalog.GetList(ctx, result.ListID)
		require.NoError(t, err)
		assert.Equal(t, "travel words", list.Name)

		n, err := catalog.CountWords(ctx, result.ListID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		ids, err := catalog.NewWordIDs(ctx, result.ListID, 10)
		require.NoError(t, err)
		require.Len(t, ids, 2)

		word, err := catalog.GetWord(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "haus", word.Term)
		assert.Equal(t, "house", word.Translation)
		assert.Equal(t, "Das Haus ist groß", word.Example)
		assert.Equal(t, "de", word.LanguageCode)
	})

	t.Run("skips incomplete rows without aborting", func(t *testing.T) {
		t.Parallel()

		db, catalog := openTestDB(t)
		path := writeCSV(t, "term,translation\n"+
			"haus,house\n"+
			"baum,\n")

		importer := New(db, catalog, nil)
		result, err := importer.Import(ctx, importConfig(path))
		require.NoError(t, err)

		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 1, result.Skipped)
		require.Len(t, result.RowErrors, 1)
		assert.Contains(t, result.RowErrors[0], "row 3")
	})

	t.Run("blank rows are ignored silently", func(t *testing.T) {
		t.Parallel()

		db, catalog := openTestDB(t)
		path := writeCSV(t, "term,translation\n"+
			"haus,house\n"+
			",,\n"+
			"baum,tree\n")

		importer := New(db, catalog, nil)
		result, err := importer.Import(ctx, importConfig(path))
		require.NoError(t, err)

		assert.Equal(t, 2, result.Imported)
		assert.Zero(t, result.Skipped)
	})

	t.Run("file with no word rows is rejected", func(t *testing.T) {
		t.Parallel()

		db, catalog := openTestDB(t)
		path := writeCSV(t, "term,translation\n")

		importer := New(db, catalog, nil)
		_, err := importer.Import(ctx, importConfig(path))
		assert.ErrorIs(t, err, ErrNoRows)
	})

	t.Run("unsupported extension is rejected", func(t *testing.T) {
		t.Parallel()

		db, catalog := openTestDB(t)
		importer := New(db, catalog, nil)

		cfg := importConfig("words.docx")
		_, err := importer.Import(ctx, cfg)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing config fields are rejected", func(t *testing.T) {
		t.Parallel()

		db, catalog := openTestDB(t)
		importer := New(db, catalog, nil)

		cfg := importConfig(writeCSV(t, "term,translation\nhaus,house\n"))
		cfg.ListName = ""
		_, err := importer.Import(ctx, cfg)
		assert.Error(t, err)

		cfg = importConfig(cfg.FilePath)
		cfg.LanguageCode = ""
		_, err = importer.Import(ctx, cfg)
		assert.Error(t, err)
	})
}

func TestColumnIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, columnIndex("A"))
	assert.Equal(t, 2, columnIndex("C"))
	assert.Equal(t, 26, columnIndex("AA"))
	assert.Equal(t, -1, columnIndex("7"))
}
