package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aktagon/content-writer/internal/markdown"
	"github.com/aktagon/content-writer/internal/source"
)

const dateLayout = "2006-01-02"

// ErrEmptySlug marks a record whose title has no [a-z0-9] characters
var ErrEmptySlug = errors.New("title produces an empty slug")

// Config holds everything a run needs. It is built once and passed to the
// processor; nothing is read from the environment during a run.
type Config struct {
	InputPath         string
	OutputDir         string
	Layout            string           // blog only
	MaxSlugLength     int              // Q&A only; zero or less is unbounded
	Now               func() time.Time // source of the blog date
	StripTitleHeading bool             // blog only
	ConvertHTML       bool             // Q&A only
	Limit             int              // process at most Limit records when > 0
	DryRun            bool
}

// ContentProcessor turns source records into markdown files
type ContentProcessor struct {
	config    Config
	generator ContentGenerator
	answers   *AnswerConverter
}

// NewContentProcessor creates a processor. The generator is only used by
// the blog pipeline and may be nil for Q&A runs and dry runs.
func NewContentProcessor(config Config, generator ContentGenerator) *ContentProcessor {
	if config.Now == nil {
		config.Now = time.Now
	}

	cp := &ContentProcessor{
		config:    config,
		generator: generator,
	}
	if config.ConvertHTML {
		cp.answers = NewAnswerConverter()
	}
	return cp
}

// ProcessFile reads the configured CSV file and processes it with the
// given pipeline
func (cp *ContentProcessor) ProcessFile(pipeline Pipeline) ([]ProcessingResult, error) {
	file, err := os.Open(cp.config.InputPath)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer file.Close()

	records, err := readRecords(pipeline, file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cp.config.InputPath, err)
	}

	return cp.Process(pipeline, records)
}

func readRecords(pipeline Pipeline, r io.Reader) ([]source.SourceRecord, error) {
	switch pipeline {
	case PipelineBlog:
		return source.ReadBlog(r)
	case PipelineQnA:
		return source.ReadQnA(r)
	default:
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}
}

// ProcessBlog generates a blog post for every record
func (cp *ContentProcessor) ProcessBlog(records []source.SourceRecord) ([]ProcessingResult, error) {
	return cp.Process(PipelineBlog, records)
}

// ProcessQnA writes a question page for every record
func (cp *ContentProcessor) ProcessQnA(records []source.SourceRecord) ([]ProcessingResult, error) {
	return cp.Process(PipelineQnA, records)
}

// Process handles records sequentially. Generation failures and empty slugs
// skip the record; any other error stops the run and is returned together
// with the results so far.
func (cp *ContentProcessor) Process(pipeline Pipeline, records []source.SourceRecord) ([]ProcessingResult, error) {
	if pipeline != PipelineBlog && pipeline != PipelineQnA {
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}
	if pipeline == PipelineBlog && cp.generator == nil && !cp.config.DryRun {
		return nil, fmt.Errorf("blog pipeline requires a content generator")
	}

	if !cp.config.DryRun {
		if err := ensureDir(cp.config.OutputDir); err != nil {
			return nil, err
		}
	}

	if cp.config.Limit > 0 && len(records) > cp.config.Limit {
		records = records[:cp.config.Limit]
	}

	results := make([]ProcessingResult, 0, len(records))
	written := make(map[string]int)

	log.Printf("Processing %d %s records...", len(records), pipeline)

	for i, record := range records {
		log.Printf("[%d/%d] Processing: %s", i+1, len(records), record.PrimaryText)

		result, err := cp.processRecord(pipeline, record, written)
		results = append(results, result)
		if err != nil {
			return results, fmt.Errorf("line %d: %w", record.Line, err)
		}

		switch result.Status {
		case StatusSuccess:
			log.Printf("✓ Created: %s", result.Filename)
		case StatusDryRun:
			log.Printf("✓ Would create: %s", result.Filename)
		case StatusSkipped:
			log.Printf("✗ Skipped %q: %v", result.Title, result.Error)
		}
	}

	logSummary(results)
	return results, nil
}

func (cp *ContentProcessor) processRecord(pipeline Pipeline, record source.SourceRecord, written map[string]int) (ProcessingResult, error) {
	result := ProcessingResult{
		Line:  record.Line,
		Title: record.PrimaryText,
	}

	maxLength := 0
	if pipeline == PipelineQnA {
		maxLength = cp.config.MaxSlugLength
	}
	slug := markdown.SlugifyMax(record.PrimaryText, maxLength)
	result.Slug = slug
	if slug == "" {
		result.Status = StatusSkipped
		result.Error = fmt.Errorf("%w: %q", ErrEmptySlug, record.PrimaryText)
		return result, nil
	}

	result.Filename = filepath.Join(cp.config.OutputDir, slug+".md")
	if line, ok := written[slug]; ok {
		result.Collision = true
		log.Printf("Warning: %s from line %d overwrites the file written for line %d", result.Filename, record.Line, line)
	}

	if cp.config.DryRun {
		result.Status = StatusDryRun
		written[slug] = record.Line
		return result, nil
	}

	var (
		content string
		err     error
	)
	switch pipeline {
	case PipelineBlog:
		body, genErr := cp.generateBody(record)
		if genErr != nil {
			result.Status = StatusSkipped
			result.Error = genErr
			return result, nil
		}
		content, err = cp.blogDocument(record, body)
	case PipelineQnA:
		content, err = cp.qnaDocument(record, slug)
	}
	if err != nil {
		result.Status = StatusError
		result.Error = err
		return result, err
	}

	if err := writeDocument(result.Filename, content); err != nil {
		result.Status = StatusError
		result.Error = fmt.Errorf("writing %s: %w", result.Filename, err)
		return result, result.Error
	}

	written[slug] = record.Line
	result.Status = StatusSuccess
	return result, nil
}

// generateBody asks the generator for a body. Every failure is reported as
// ErrGenerationFailed.
func (cp *ContentProcessor) generateBody(record source.SourceRecord) (string, error) {
	body, err := cp.generator.Generate(record.PrimaryText, record.SecondaryText)
	if err != nil {
		if errors.Is(err, ErrGenerationFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(body) == "" {
		return "", errEmptyBody
	}

	if cp.config.StripTitleHeading {
		body = markdown.StripTitleHeading(body, record.PrimaryText)
	}
	return body, nil
}

// blogDocument builds a blog post:
// title, date, category, tags, image, layout
func (cp *ContentProcessor) blogDocument(record source.SourceRecord, body string) (string, error) {
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	fields := markdown.Fields{}.
		Add("title", record.PrimaryText).
		Add("date", cp.config.Now().Format(dateLayout)).
		Add("category", record.SecondaryText).
		Add("tags", tags).
		Add("image", record.ImageRef).
		Add("layout", cp.config.Layout)

	return markdown.BuildDocument(fields, body)
}

// qnaDocument builds a question page:
// title, slug and the answer as body
func (cp *ContentProcessor) qnaDocument(record source.SourceRecord, slug string) (string, error) {
	answer := record.SecondaryText
	if cp.answers != nil {
		converted, err := cp.answers.Convert(answer)
		if err != nil {
			return "", err
		}
		answer = converted
	}

	fields := markdown.Fields{}.
		Add("title", record.PrimaryText).
		Add("slug", slug)

	return markdown.BuildDocument(fields, answer+"\n")
}

// ensureDir creates the output directory if it doesn't exist
func ensureDir(dir string) error {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("creating output directory: %s is not a directory", dir)
		}
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	log.Printf("Created directory: %s", dir)
	return nil
}

// writeDocument creates or truncates filename and writes content. The file
// is closed on every path and a failed close is reported.
func writeDocument(filename, content string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.WriteString(file, content)
	return err
}

func logSummary(results []ProcessingResult) {
	var created, skipped, planned, collisions int
	for _, result := range results {
		switch result.Status {
		case StatusSuccess:
			created++
		case StatusSkipped:
			skipped++
		case StatusDryRun:
			planned++
		}
		if result.Collision {
			collisions++
		}
	}

	if planned > 0 {
		log.Printf("Dry run: %d files would be written, %d skipped, %d collisions", planned, skipped, collisions)
		return
	}
	log.Printf("Created %d files, skipped %d, %d collisions", created, skipped, collisions)
}
