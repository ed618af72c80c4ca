// Package importer loads question banks from spreadsheets.
//
// The first row is a header. Recognised columns (case-insensitive):
//
//	id, subject, question, a, b, c, d, e, answer, expected_seconds
//
// "question", at least options "a" and "b", and "answer" (a letter) are required.
// Rows without an id get one derived from the bank and question text, so
// importing the same file twice updates instead of duplicating.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing required column")
)

var optionColumns = []string{"a", "b", "c", "d", "e"}

// Result holds the outcome of parsing one file.
type Result struct {
	Questions []*entities.Question
	Processed int      // data rows read
	Skipped   int      // blank or invalid rows
	Errors    []string // one message per invalid row
}

// QuestionSaver persists parsed questions.
type QuestionSaver interface {
	SaveQuestions(ctx context.Context, questions []*entities.Question) error
}

// Importer parses spreadsheets and stores their questions in a bank.
type Importer struct {
	questions QuestionSaver
	logger    *zap.Logger
	now       func() time.Time
}

func New(questions QuestionSaver, logger *zap.Logger) *Importer {
	return &Importer{
		questions: questions,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ImportFile reads a .xlsx or .csv file into bankID. Invalid rows are reported
// in the result and skipped; the valid ones are saved in one batch.
func (im *Importer) ImportFile(ctx context.Context, path, bankID string) (*Result, error) {
	if strings.TrimSpace(bankID) == "" {
		return nil, entities.NewValidationError("bank_id", "must not be empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var res *Result
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		res, err = ParseCSV(f, bankID, im.now())
	case ".xlsx":
		res, err = ParseXLSX(f, "", bankID, im.now())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	if len(res.Questions) > 0 {
		if err := im.questions.SaveQuestions(ctx, res.Questions); err != nil {
			return nil, fmt.Errorf("save questions: %w", err)
		}
	}

	im.logger.Info("question bank imported",
		zap.String("file", path),
		zap.String("bank_id", bankID),
		zap.Int("imported", len(res.Questions)),
		zap.Int("skipped", res.Skipped),
	)

	return res, nil
}

// ParseCSV parses a comma separated question bank.
func ParseCSV(r io.Reader, bankID string, now time.Time) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows, bankID, now)
}

// ParseXLSX parses a workbook. An empty sheet name uses the first sheet.
func ParseXLSX(r io.Reader, sheet, bankID string, now time.Time) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseRows(rows, bankID, now)
}

func parseRows(rows [][]string, bankID string, now time.Time) (*Result, error) {
	if len(rows) == 0 {
		return &Result{}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"question", "a", "b", "answer"} {
		if _, ok := header[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	res := &Result{}
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(name string) string {
			idx, ok := header[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if isBlank(row) {
			res.Skipped++
			continue
		}
		res.Processed++

		q, err := buildQuestion(cell, bankID, res.Processed, now)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}
		res.Questions = append(res.Questions, q)
	}

	return res, nil
}

func buildQuestion(cell func(string) string, bankID string, position int, now time.Time) (*entities.Question, error) {
	q := &entities.Question{
		ID:        cell("id"),
		BankID:    bankID,
		Subject:   cell("subject"),
		Body:      cell("question"),
		Position:  position,
		CreatedAt: now,
	}

	for _, col := range optionColumns {
		if opt := cell(col); opt != "" {
			q.Options = append(q.Options, opt)
		}
	}

	answer := strings.ToLower(cell("answer"))
	q.AnswerIndex = -1
	for i, col := range optionColumns {
		if answer == col {
			q.AnswerIndex = i
		}
	}
	if q.AnswerIndex < 0 {
		return nil, fmt.Errorf("answer %q is not one of A-E", cell("answer"))
	}

	if raw := cell("expected_seconds"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected_seconds %q: %w", raw, err)
		}
		q.ExpectedSeconds = secs
	}

	if q.ID == "" {
		q.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(bankID+"\x00"+q.Body)).String()
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func isBlank(row []string) bool {
	return strings.TrimSpace(strings.Join(row, "")) == ""
}
