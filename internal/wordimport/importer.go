// Package wordimport loads vocabulary lists into the catalog from Excel
// workbooks and CSV files.
package wordimport

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/store"
)

// Importer-level errors
var (
	// ErrNoRows is returned when the source file yields no importable rows.
	ErrNoRows = errors.New("import source contains no word rows")

	// ErrUnsupportedFormat is returned for file extensions the importer
	// does not handle.
	ErrUnsupportedFormat = errors.New("unsupported import file format")
)

// Config describes one import run. Columns are Excel-style letters and
// apply to both Excel and CSV sources (A = first field).
type Config struct {
	FilePath          string
	ListName          string
	LanguageCode      string
	TermColumn        string
	TranslationColumn string
	ExampleColumn     string
	SheetName         string
	StartRow          int // 1-based; rows above it are treated as headers
}

// DefaultConfig returns the column layout most exported word lists use:
// term, translation, example sentence, header in the first row.
func DefaultConfig() Config {
	return Config{
		TermColumn:        "A",
		TranslationColumn: "B",
		ExampleColumn:     "C",
		SheetName:         "Sheet1",
		StartRow:          2,
	}
}

// Result summarizes an import run. RowErrors carries per-row problems that
// did not abort the run.
type Result struct {
	ListID    uuid.UUID
	Imported  int
	Skipped   int
	RowErrors []string
}

// Importer reads word rows from a file and writes them to the catalog as a
// single new list inside one transaction.
type Importer struct {
	db      *sql.DB
	catalog store.WordCatalog
	logger  *slog.Logger
}

// New creates an Importer. Panics if db or catalog is nil.
func New(db *sql.DB, catalog store.WordCatalog, logger *slog.Logger) *Importer {
	if db == nil {
		panic("db cannot be nil")
	}
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Importer{
		db:      db,
		catalog: catalog,
		logger:  logger.With(slog.String("component", "wordimport")),
	}
}

// Import reads the configured file and creates the list and its words. The
// list and all rows are written in one transaction: a storage failure leaves
// the catalog untouched. Rows missing a term or translation are skipped and
// reported in the result, not treated as fatal.
func (im *Importer) Import(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.ListName == "" {
		return nil, errors.New("list name cannot be empty")
	}
	if cfg.LanguageCode == "" {
		return nil, errors.New("language code cannot be empty")
	}

	rows, err := readRows(cfg)
	if err != nil {
		return nil, err
	}

	listID := uuid.New()
	result := &Result{ListID: listID}

	var words []*domain.Word
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow {
			continue
		}

		term := cell(row, cfg.TermColumn)
		translation := cell(row, cfg.TranslationColumn)
		example := cell(row, cfg.ExampleColumn)

		if term == "" && translation == "" && example == "" {
			continue // blank row
		}

		word, err := domain.NewWord(listID, term, translation, example, cfg.LanguageCode)
		if err != nil {
			result.Skipped++
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		words = append(words, word)
	}

	if len(words) == 0 {
		return nil, ErrNoRows
	}

	err = store.RunInTransaction(ctx, im.db, func(ctx context.Context, tx *sql.Tx) error {
		catalog := im.catalog.WithTx(tx)

		list := &store.WordList{
			ID:        listID,
			Name:      cfg.ListName,
			CreatedAt: time.Now().UTC(),
		}
		if err := catalog.CreateList(ctx, list); err != nil {
			return fmt.Errorf("failed to create word list: %w", err)
		}
		if err := catalog.AddWords(ctx, words); err != nil {
			return fmt.Errorf("failed to add words: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Imported = len(words)
	im.logger.Info("import finished",
		slog.String("list_id", listID.String()),
		slog.String("list_name", cfg.ListName),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// readRows loads the raw rows from the source file, dispatching on
// extension.
func readRows(cfg Config) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(cfg.FilePath)) {
	case ".csv":
		return readCSV(cfg.FilePath)
	case ".xlsx", ".xlsm":
		return readExcel(cfg.FilePath, cfg.SheetName)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(cfg.FilePath))
	}
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cell returns the trimmed value of the Excel-letter column in row, or ""
// when the row is too short or the column is unset.
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// columnIndex converts an Excel column letter ("A", "AB") to a zero-based
// index.
func columnIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	idx := 0
	for i := 0; i < len(column); i++ {
		c := column[i]
		if c < 'A' || c > 'Z' {
			return -1
		}
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}
