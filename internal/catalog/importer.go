package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/fluentwork/coach/internal/domain"
	"github.com/fluentwork/coach/internal/platform/logger"
	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when the requested sheet is not in the workbook.
var ErrNoSheet = errors.New("sheet not found")

// Columns names the spreadsheet column holding each item field.
// An empty name means the field is not present in the sheet.
type Columns struct {
	ID          string
	Word        string
	Translation string
	Example     string
	Category    string
	CommonError string
}

// Options controls how a workbook is read.
type Options struct {
	// Sheet is the sheet to read. Empty means the first sheet.
	Sheet string
	// StartRow is the 1-based first data row.
	StartRow int
	// DefaultCategory applies to rows with no category cell.
	DefaultCategory domain.Category
	Columns         Columns
}

// DefaultOptions reads the first sheet, skipping one header row.
func DefaultOptions() Options {
	return Options{
		StartRow:        2,
		DefaultCategory: domain.CategoryGeneral,
		Columns: Columns{
			Word:        "A",
			Translation: "B",
			Example:     "C",
			Category:    "D",
			CommonError: "E",
		},
	}
}

// RowError describes a row that was skipped.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result holds the items read from a workbook.
type Result struct {
	Items   []domain.VocabularyItem
	Skipped []RowError
}

// ReadFile reads the workbook at path.
func ReadFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f, opts)
}

// Read reads a workbook from r. Blank rows are ignored; rows that fail
// validation are reported in Result.Skipped. Items without an id column get
// an id derived from the word, so importing the same catalog twice replaces
// rather than duplicates.
func Read(r io.Reader, opts Options) (*Result, error) {
	cols, err := resolveColumns(opts.Columns)
	if err != nil {
		return nil, err
	}

	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidFormat, err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	sheet := opts.Sheet
	switch {
	case sheet == "" && len(sheets) > 0:
		sheet = sheets[0]
	case !slices.Contains(sheets, sheet):
		return nil, fmt.Errorf("%w: %q", ErrNoSheet, sheet)
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	start := opts.StartRow
	if start < 1 {
		start = 1
	}
	category := opts.DefaultCategory
	if category == "" {
		category = domain.CategoryGeneral
	}

	result := &Result{}
	seen := make(map[string]int)
	for i := start - 1; i < len(rows); i++ {
		rowNum := i + 1
		row := rows[i]
		if isBlank(row) {
			continue
		}

		item := cols.item(row, category)
		if err := item.Validate(); err != nil {
			result.Skipped = append(result.Skipped, RowError{Row: rowNum, Err: err})
			continue
		}
		if first, ok := seen[item.ID]; ok {
			result.Skipped = append(result.Skipped, RowError{
				Row: rowNum,
				Err: fmt.Errorf("%w: duplicate of row %d", domain.ErrValidation, first),
			})
			continue
		}
		seen[item.ID] = rowNum
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// Saver stores imported items for a user.
type Saver interface {
	ImportVocabulary(ctx context.Context, userID string, items []domain.VocabularyItem) error
}

// Importer reads catalogs and stores their items.
type Importer struct {
	saver  Saver
	opts   Options
	logger *slog.Logger
}

// NewImporter creates an Importer. It panics if saver is nil.
func NewImporter(saver Saver, opts Options, log *slog.Logger) *Importer {
	if saver == nil {
		panic("saver cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		saver:  saver,
		opts:   opts,
		logger: log.With(slog.String("component", "catalog_importer")),
	}
}

// Import reads the workbook from r and stores its valid items for userID.
func (i *Importer) Import(ctx context.Context, userID string, r io.Reader) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, i.logger).With(slog.String("user_id", userID))

	result, err := Read(r, i.opts)
	if err != nil {
		return nil, err
	}
	for _, skipped := range result.Skipped {
		log.Warn("skipping catalog row", slog.Int("row", skipped.Row), slog.String("error", skipped.Err.Error()))
	}
	if len(result.Items) == 0 {
		log.Info("catalog has no importable items")
		return result, nil
	}
	if err := i.saver.ImportVocabulary(ctx, userID, result.Items); err != nil {
		return result, fmt.Errorf("failed to store catalog: %w", err)
	}
	log.Info("catalog imported",
		slog.Int("item_count", len(result.Items)),
		slog.Int("skipped_count", len(result.Skipped)))
	return result, nil
}

// columnIndexes holds zero-based column positions, -1 for absent fields.
type columnIndexes struct {
	id, word, translation, example, category, commonError int
}

func resolveColumns(c Columns) (columnIndexes, error) {
	var idx columnIndexes
	fields := []struct {
		name string
		dst  *int
	}{
		{c.ID, &idx.id},
		{c.Word, &idx.word},
		{c.Translation, &idx.translation},
		{c.Example, &idx.example},
		{c.Category, &idx.category},
		{c.CommonError, &idx.commonError},
	}
	for _, f := range fields {
		*f.dst = -1
		if f.name == "" {
			continue
		}
		n, err := excelize.ColumnNameToNumber(f.name)
		if err != nil {
			return idx, fmt.Errorf("%w: column %q: %w", domain.ErrValidation, f.name, err)
		}
		*f.dst = n - 1
	}
	if idx.word < 0 || idx.translation < 0 {
		return idx, fmt.Errorf("%w: word and translation columns are required", domain.ErrValidation)
	}
	return idx, nil
}

func (c columnIndexes) item(row []string, defaultCategory domain.Category) domain.VocabularyItem {
	item := domain.VocabularyItem{
		ID:          cell(row, c.id),
		Word:        cell(row, c.word),
		Translation: cell(row, c.translation),
		Example:     cell(row, c.example),
		Category:    domain.Category(strings.ToLower(cell(row, c.category))),
		CommonError: cell(row, c.commonError),
	}
	if item.Category == "" {
		item.Category = defaultCategory
	}
	if item.ID == "" && item.Word != "" {
		item.ID = DeriveID(item.Word)
	}
	return item
}

// DeriveID builds a stable item id from a word: "cat-" followed by the
// lowercased word with runs of non-alphanumerics collapsed to "-".
func DeriveID(word string) string {
	var b strings.Builder
	b.WriteString("cat-")
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(word)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
