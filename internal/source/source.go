// Package source reads the CSV inputs of the blog and Q&A pipelines into
// SourceRecords.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const missingColumnCode = "CSV_MISSING_COLUMN"

// ErrMissingColumn is the root cause of every missing-column error.
var ErrMissingColumn = errors.New("missing required column")

// Blog pipeline column names.
const (
	ColumnTitle    = "Title"
	ColumnCategory = "Category"
	ColumnTags     = "Tags"
	ColumnImage    = "Image"
)

// Q&A pipeline column names; each may also appear in lower case.
const (
	ColumnQuestion = "Question"
	ColumnAnswer   = "Answer"
)

// SourceRecord is one input row.
type SourceRecord struct {
	Line          int // line of the row in the CSV file
	PrimaryText   string
	SecondaryText string
	Tags          []string
	ImageRef      string
}

// ReadBlog reads rows with Title, Category, Tags and Image columns.
func ReadBlog(r io.Reader) ([]SourceRecord, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}

	title, err := t.column(ColumnTitle)
	if err != nil {
		return nil, err
	}
	category, err := t.column(ColumnCategory)
	if err != nil {
		return nil, err
	}
	tags, err := t.column(ColumnTags)
	if err != nil {
		return nil, err
	}
	image, err := t.column(ColumnImage)
	if err != nil {
		return nil, err
	}

	var records []SourceRecord
	err = t.each(func(line int, row []string) error {
		cells, err := cellsAt(line, row, title, category, tags, image)
		if err != nil {
			return err
		}
		records = append(records, SourceRecord{
			Line:          line,
			PrimaryText:   cells[0],
			SecondaryText: cells[1],
			Tags:          ParseTags(cells[2]),
			ImageRef:      cells[3],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReadQnA reads rows with Question and Answer columns. Either column may be
// spelled in lower case.
func ReadQnA(r io.Reader) ([]SourceRecord, error) {
	t, err := newTable(r)
	if err != nil {
		return nil, err
	}

	question, err := t.column(ColumnQuestion, strings.ToLower(ColumnQuestion))
	if err != nil {
		return nil, err
	}
	answer, err := t.column(ColumnAnswer, strings.ToLower(ColumnAnswer))
	if err != nil {
		return nil, err
	}

	var records []SourceRecord
	err = t.each(func(line int, row []string) error {
		cells, err := cellsAt(line, row, question, answer)
		if err != nil {
			return err
		}
		records = append(records, SourceRecord{
			Line:          line,
			PrimaryText:   cells[0],
			SecondaryText: cells[1],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ParseTags splits a comma separated Tags cell, trimming each tag and
// dropping empty ones.
func ParseTags(cell string) []string {
	tags := []string{}
	for _, tag := range strings.Split(cell, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// IsMissingColumn reports whether err was caused by a required column
// missing from the header or a row.
func IsMissingColumn(err error) bool {
	return goerrors.IsCategory(err, goerrors.CategoryValidation)
}

type column struct {
	name  string
	index int
}

type table struct {
	reader *csv.Reader
	header map[string]int
}

func newTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, missingColumn("CSV file is empty: header row required")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	return &table{reader: reader, header: index}, nil
}

// column resolves the first of names present in the header.
func (t *table) column(names ...string) (column, error) {
	for _, name := range names {
		if i, ok := t.header[name]; ok {
			return column{name: name, index: i}, nil
		}
	}
	return column{}, missingColumn(fmt.Sprintf("missing required column %q in CSV header", names[0]))
}

func (t *table) each(fn func(line int, row []string) error) error {
	for {
		row, err := t.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := t.reader.FieldPos(0)
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

func cellsAt(line int, row []string, columns ...column) ([]string, error) {
	cells := make([]string, len(columns))
	for i, col := range columns {
		if col.index >= len(row) {
			return nil, missingColumn(fmt.Sprintf("line %d: row has no value for column %q", line, col.name))
		}
		cells[i] = row[col.index]
	}
	return cells, nil
}

func missingColumn(message string) error {
	return goerrors.Wrap(ErrMissingColumn, goerrors.CategoryValidation, message).
		WithTextCode(missingColumnCode)
}
