package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aktagon/content-writer/internal/markdown"
	"github.com/aktagon/content-writer/internal/source"
)

var fixedNow = func() time.Time {
	return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
}

func stubGenerator(body string) GeneratorFunc {
	return func(topic, category string) (string, error) {
		return body, nil
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}
	return path
}

func readDocument(t *testing.T, path string) (map[string]any, string) {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	meta, _, err := markdown.ParseDocument(content)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	_, body, found := strings.Cut(string(content), "\n\n")
	if !found {
		t.Fatalf("no blank line separator in %s", path)
	}
	return meta, body
}

func TestProcessBlogFromCSV(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "content", "dog", "blog")
	config := Config{
		InputPath: writeCSV(t, "Title,Category,Tags,Image\nMy Dog,Fun,\"a, b\",x.jpg\n"),
		OutputDir: outputDir,
		Layout:    "layouts/blog.njk",
		Now:       fixedNow,
	}

	var gotTopic, gotCategory string
	generator := GeneratorFunc(func(topic, category string) (string, error) {
		gotTopic, gotCategory = topic, category
		return "Body text.", nil
	})

	results, err := NewContentProcessor(config, generator).ProcessFile(PipelineBlog)
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if len(results) != 1 || results[0].Status != StatusSuccess {
		t.Fatalf("results = %+v", results)
	}
	if gotTopic != "My Dog" || gotCategory != "Fun" {
		t.Errorf("generator called with (%q, %q)", gotTopic, gotCategory)
	}

	filename := filepath.Join(outputDir, "my-dog.md")
	if results[0].Filename != filename {
		t.Errorf("filename = %s, want %s", results[0].Filename, filename)
	}

	meta, body := readDocument(t, filename)
	if meta["title"] != "My Dog" {
		t.Errorf("title = %v", meta["title"])
	}
	if meta["category"] != "Fun" {
		t.Errorf("category = %v", meta["category"])
	}
	if meta["date"] != "2026-10-19" {
		t.Errorf("date = %v", meta["date"])
	}
	if meta["image"] != "x.jpg" {
		t.Errorf("image = %v", meta["image"])
	}
	if meta["layout"] != "layouts/blog.njk" {
		t.Errorf("layout = %v", meta["layout"])
	}
	tags, ok := meta["tags"].([]interface{})
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("tags = %#v, want [a b]", meta["tags"])
	}
	if body != "Body text." {
		t.Errorf("body = %q, want %q", body, "Body text.")
	}
}

func TestProcessBlogFieldOrder(t *testing.T) {
	outputDir := t.TempDir()
	cp := NewContentProcessor(Config{OutputDir: outputDir, Layout: "layouts/blog.njk", Now: fixedNow}, stubGenerator("Body text."))

	records := []source.SourceRecord{{Line: 2, PrimaryText: "My Dog", SecondaryText: "Fun", Tags: []string{"a", "b"}, ImageRef: "x.jpg"}}
	if _, err := cp.ProcessBlog(records); err != nil {
		t.Fatalf("ProcessBlog() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(outputDir, "my-dog.md"))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	expected := "---\n" +
		"title: \"My Dog\"\n" +
		"date: \"2026-10-19\"\n" +
		"category: \"Fun\"\n" +
		"tags: [\"a\", \"b\"]\n" +
		"image: \"x.jpg\"\n" +
		"layout: \"layouts/blog.njk\"\n" +
		"---\n\n" +
		"Body text."
	if string(content) != expected {
		t.Errorf("document =\n%s\nwant\n%s", content, expected)
	}
}

func TestProcessBlogSkipsFailedGeneration(t *testing.T) {
	outputDir := t.TempDir()
	generator := GeneratorFunc(func(topic, category string) (string, error) {
		if topic == "Broken Topic" {
			return "", errors.New("quota exceeded")
		}
		return "Generated for " + topic, nil
	})

	records := []source.SourceRecord{
		{Line: 2, PrimaryText: "Broken Topic", SecondaryText: "Fun"},
		{Line: 3, PrimaryText: "Good Topic", SecondaryText: "Fun"},
	}

	results, err := NewContentProcessor(Config{OutputDir: outputDir, Layout: "l", Now: fixedNow}, generator).ProcessBlog(records)
	if err != nil {
		t.Fatalf("ProcessBlog() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if results[0].Status != StatusSkipped {
		t.Errorf("status = %s, want skipped", results[0].Status)
	}
	if !errors.Is(results[0].Error, ErrGenerationFailed) {
		t.Errorf("error = %v, want ErrGenerationFailed", results[0].Error)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "broken-topic.md")); !os.IsNotExist(err) {
		t.Errorf("file written for failed generation")
	}

	if results[1].Status != StatusSuccess {
		t.Errorf("status = %s, want success", results[1].Status)
	}
	if _, body := readDocument(t, filepath.Join(outputDir, "good-topic.md")); body != "Generated for Good Topic" {
		t.Errorf("body = %q", body)
	}
}

func TestProcessBlogSkipsEmptyGeneratedBody(t *testing.T) {
	outputDir := t.TempDir()
	results, err := NewContentProcessor(Config{OutputDir: outputDir, Layout: "l", Now: fixedNow}, stubGenerator("  \n")).
		ProcessBlog([]source.SourceRecord{{PrimaryText: "Empty", SecondaryText: "Fun"}})
	if err != nil {
		t.Fatalf("ProcessBlog() error = %v", err)
	}
	if results[0].Status != StatusSkipped || !errors.Is(results[0].Error, errEmptyBody) {
		t.Errorf("result = %+v", results[0])
	}
}

func TestProcessBlogStripsTitleHeading(t *testing.T) {
	outputDir := t.TempDir()
	config := Config{OutputDir: outputDir, Layout: "l", Now: fixedNow, StripTitleHeading: true}
	cp := NewContentProcessor(config, stubGenerator("# My Dog\n\nDogs are great."))

	if _, err := cp.ProcessBlog([]source.SourceRecord{{PrimaryText: "My Dog", SecondaryText: "Fun"}}); err != nil {
		t.Fatalf("ProcessBlog() error = %v", err)
	}
	if _, body := readDocument(t, filepath.Join(outputDir, "my-dog.md")); body != "Dogs are great." {
		t.Errorf("body = %q", body)
	}
}

func TestProcessBlogUnboundedSlug(t *testing.T) {
	outputDir := t.TempDir()
	title := strings.Repeat("long ", 40)
	cp := NewContentProcessor(Config{OutputDir: outputDir, Layout: "l", Now: fixedNow, MaxSlugLength: 100}, stubGenerator("Body"))

	results, err := cp.ProcessBlog([]source.SourceRecord{{PrimaryText: title, SecondaryText: "Fun"}})
	if err != nil {
		t.Fatalf("ProcessBlog() error = %v", err)
	}
	if results[0].Slug != markdown.Slugify(title) {
		t.Errorf("blog slug truncated: %d chars", len(results[0].Slug))
	}
}

func TestProcessBlogRequiresGenerator(t *testing.T) {
	_, err := NewContentProcessor(Config{OutputDir: t.TempDir()}, nil).ProcessBlog(nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestProcessQnA(t *testing.T) {
	outputDir := t.TempDir()
	config := Config{
		InputPath:     writeCSV(t, "question,answer\nDo rabbits thump?,Yes they do.\n"),
		OutputDir:     outputDir,
		MaxSlugLength: 100,
	}

	results, err := NewContentProcessor(config, nil).ProcessFile(PipelineQnA)
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if results[0].Status != StatusSuccess {
		t.Fatalf("result = %+v", results[0])
	}

	content, err := os.ReadFile(filepath.Join(outputDir, "do-rabbits-thump.md"))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	expected := "---\ntitle: \"Do rabbits thump?\"\nslug: \"do-rabbits-thump\"\n---\n\nYes they do.\n"
	if string(content) != expected {
		t.Errorf("document = %q, want %q", content, expected)
	}
}

func TestProcessQnATruncatesSlug(t *testing.T) {
	outputDir := t.TempDir()
	question := strings.Repeat("x", 150) + "?"
	full := markdown.Slugify(question)
	if len(full) != 150 {
		t.Fatalf("setup: raw slug length = %d", len(full))
	}

	results, err := NewContentProcessor(Config{OutputDir: outputDir, MaxSlugLength: 100}, nil).
		ProcessQnA([]source.SourceRecord{{PrimaryText: question, SecondaryText: "Answer"}})
	if err != nil {
		t.Fatalf("ProcessQnA() error = %v", err)
	}

	slug := results[0].Slug
	if len(slug) != 100 || slug != full[:100] {
		t.Errorf("slug = %q (%d chars), want first 100 chars of raw slug", slug, len(slug))
	}

	meta, _ := readDocument(t, filepath.Join(outputDir, slug+".md"))
	if meta["slug"] != slug {
		t.Errorf("frontmatter slug = %v, want %s", meta["slug"], slug)
	}
}

func TestProcessQnACollisionOverwrites(t *testing.T) {
	outputDir := t.TempDir()
	records := []source.SourceRecord{
		{Line: 2, PrimaryText: "Can rabbits eat carrots?", SecondaryText: "First answer."},
		{Line: 3, PrimaryText: "Can rabbits eat carrots!", SecondaryText: "Second answer."},
	}

	results, err := NewContentProcessor(Config{OutputDir: outputDir, MaxSlugLength: 100}, nil).ProcessQnA(records)
	if err != nil {
		t.Fatalf("ProcessQnA() error = %v", err)
	}

	if results[0].Collision {
		t.Error("first write flagged as collision")
	}
	if !results[1].Collision {
		t.Error("second write not flagged as collision")
	}
	if results[0].Filename != results[1].Filename {
		t.Fatalf("filenames differ: %s, %s", results[0].Filename, results[1].Filename)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d files, want 1", len(entries))
	}

	meta, body := readDocument(t, results[1].Filename)
	if body != "Second answer.\n" {
		t.Errorf("body = %q, want second answer", body)
	}
	if meta["title"] != "Can rabbits eat carrots!" {
		t.Errorf("title = %v", meta["title"])
	}
}

func TestProcessQnAConvertsHTML(t *testing.T) {
	outputDir := t.TempDir()
	cp := NewContentProcessor(Config{OutputDir: outputDir, MaxSlugLength: 100, ConvertHTML: true}, nil)

	records := []source.SourceRecord{{PrimaryText: "Do rabbits bite?", SecondaryText: "<p>Only <strong>rarely</strong>.</p>"}}
	if _, err := cp.ProcessQnA(records); err != nil {
		t.Fatalf("ProcessQnA() error = %v", err)
	}

	_, body := readDocument(t, filepath.Join(outputDir, "do-rabbits-bite.md"))
	if !strings.Contains(body, "**rarely**") || strings.Contains(body, "<p>") {
		t.Errorf("body = %q, want markdown", body)
	}
}

func TestProcessSkipsEmptySlug(t *testing.T) {
	outputDir := t.TempDir()
	records := []source.SourceRecord{
		{Line: 2, PrimaryText: "日本語", SecondaryText: "answer"},
		{Line: 3, PrimaryText: "Real question", SecondaryText: "answer"},
	}

	results, err := NewContentProcessor(Config{OutputDir: outputDir}, nil).ProcessQnA(records)
	if err != nil {
		t.Fatalf("ProcessQnA() error = %v", err)
	}
	if results[0].Status != StatusSkipped || !errors.Is(results[0].Error, ErrEmptySlug) {
		t.Errorf("result = %+v", results[0])
	}
	if _, err := os.Stat(filepath.Join(outputDir, ".md")); !os.IsNotExist(err) {
		t.Error("wrote a file with an empty name")
	}
	if results[1].Status != StatusSuccess {
		t.Errorf("status = %s, want success", results[1].Status)
	}
}

func TestProcessWriteFailureAborts(t *testing.T) {
	outputDir := t.TempDir()
	// A directory where the first document should be written
	if err := os.Mkdir(filepath.Join(outputDir, "first.md"), 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	records := []source.SourceRecord{
		{Line: 2, PrimaryText: "First", SecondaryText: "a"},
		{Line: 3, PrimaryText: "Second", SecondaryText: "b"},
	}

	results, err := NewContentProcessor(Config{OutputDir: outputDir}, nil).ProcessQnA(records)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want processing to stop after the first", len(results))
	}
	if results[0].Status != StatusError {
		t.Errorf("status = %s, want error", results[0].Status)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "second.md")); !os.IsNotExist(err) {
		t.Error("second record written after a failed write")
	}
}

func TestProcessOutputPathIsFile(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(outputDir, []byte("x"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	records := []source.SourceRecord{{Line: 2, PrimaryText: "First", SecondaryText: "a"}}
	results, err := NewContentProcessor(Config{OutputDir: outputDir}, nil).ProcessQnA(records)
	if err == nil || !strings.Contains(err.Error(), "is not a directory") {
		t.Fatalf("error = %v, want not a directory", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want none", len(results))
	}
}

func TestProcessFileMissingColumn(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	config := Config{
		InputPath: writeCSV(t, "Title,Category,Tags\nMy Dog,Fun,a\n"),
		OutputDir: outputDir,
	}

	_, err := NewContentProcessor(config, stubGenerator("Body")).ProcessFile(PipelineBlog)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Image") {
		t.Errorf("error %q does not name the missing column", err)
	}
	if _, err := os.Stat(outputDir); !os.IsNotExist(err) {
		t.Error("output directory created before the input was validated")
	}
}

func TestProcessFileMissingInput(t *testing.T) {
	config := Config{InputPath: filepath.Join(t.TempDir(), "missing.csv"), OutputDir: t.TempDir()}
	if _, err := NewContentProcessor(config, nil).ProcessFile(PipelineQnA); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestProcessDryRun(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	calls := 0
	generator := GeneratorFunc(func(topic, category string) (string, error) {
		calls++
		return "Body", nil
	})

	records := []source.SourceRecord{{PrimaryText: "My Dog", SecondaryText: "Fun"}}
	results, err := NewContentProcessor(Config{OutputDir: outputDir, DryRun: true}, generator).ProcessBlog(records)
	if err != nil {
		t.Fatalf("ProcessBlog() error = %v", err)
	}
	if results[0].Status != StatusDryRun {
		t.Errorf("status = %s, want dry-run", results[0].Status)
	}
	if calls != 0 {
		t.Errorf("generator called %d times during dry run", calls)
	}
	if _, err := os.Stat(outputDir); !os.IsNotExist(err) {
		t.Error("dry run created the output directory")
	}
}

func TestProcessLimit(t *testing.T) {
	outputDir := t.TempDir()
	records := []source.SourceRecord{
		{PrimaryText: "One", SecondaryText: "a"},
		{PrimaryText: "Two", SecondaryText: "b"},
		{PrimaryText: "Three", SecondaryText: "c"},
	}

	results, err := NewContentProcessor(Config{OutputDir: outputDir, Limit: 2}, nil).ProcessQnA(records)
	if err != nil {
		t.Fatalf("ProcessQnA() error = %v", err)
	}

	var slugs []string
	for _, result := range results {
		slugs = append(slugs, result.Slug)
	}
	if !reflect.DeepEqual(slugs, []string{"one", "two"}) {
		t.Errorf("slugs = %q, want [one two]", slugs)
	}
}

func TestWriteDocumentOverwrites(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "doc.md")
	if err := writeDocument(filename, "a much longer first version"); err != nil {
		t.Fatalf("writeDocument() error = %v", err)
	}
	if err := writeDocument(filename, "short"); err != nil {
		t.Fatalf("writeDocument() error = %v", err)
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(content) != "short" {
		t.Errorf("content = %q, want %q", content, "short")
	}
}
