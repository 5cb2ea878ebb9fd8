package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aktagon/content-writer/internal/markdown"
	"github.com/aktagon/content-writer/internal/source"
)

var (
	pipeline      string
	maxSlugLength int
)

var rootCmd = &cobra.Command{
	Use:          "audit",
	Short:        "Check generated content and predict slug collisions",
	SilenceUsage: true,
}

var checkCmd = &cobra.Command{
	Use:   "check <content-directory>",
	Short: "Report markdown files with missing or inconsistent frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		problems, err := checkDirectory(args[0])
		if err != nil {
			return err
		}
		for _, p := range problems {
			fmt.Printf("%s: %s\n", p.Path, p.Message)
		}
		if len(problems) > 0 {
			return fmt.Errorf("found %d problems", len(problems))
		}
		fmt.Println("No problems found")
		return nil
	},
}

var collisionsCmd = &cobra.Command{
	Use:   "collisions <csv-file>",
	Short: "List rows of a CSV file that would write the same file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer file.Close()

		var records []source.SourceRecord
		switch pipeline {
		case "blog":
			records, err = source.ReadBlog(file)
			maxSlugLength = 0
		case "qna":
			records, err = source.ReadQnA(file)
		default:
			return fmt.Errorf("unknown pipeline %q (valid: blog, qna)", pipeline)
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		collisions := findCollisions(records, maxSlugLength)
		for _, c := range collisions {
			if c.Slug == "" {
				fmt.Printf("empty slug: lines %s\n", joinLines(c.Lines))
				continue
			}
			fmt.Printf("%s.md: lines %s\n", c.Slug, joinLines(c.Lines))
		}
		fmt.Printf("\nFound %d collisions in %d rows\n", len(collisions), len(records))
		return nil
	},
}

// Problem is a finding for one markdown file
type Problem struct {
	Path    string
	Message string
}

// Collision lists the CSV lines that produce the same slug
type Collision struct {
	Slug  string
	Lines []int
}

func checkDirectory(dir string) ([]Problem, error) {
	var problems []Problem
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		found, err := checkFile(path)
		if err != nil {
			log.Printf("Error processing %s: %v", path, err)
			problems = append(problems, Problem{Path: path, Message: err.Error()})
			return nil
		}
		problems = append(problems, found...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return problems, nil
}

func checkFile(path string) ([]Problem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	meta, _, err := markdown.ParseDocument(content)
	if err != nil {
		return nil, err
	}

	var problems []Problem
	report := func(format string, args ...any) {
		problems = append(problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	if !markdown.IsValidTruncated(stem) {
		report("filename %q is not a valid slug", stem)
	}

	if len(meta) == 0 {
		report("no frontmatter")
		return problems, nil
	}

	if title, _ := meta["title"].(string); strings.TrimSpace(title) == "" {
		report("empty title")
	}
	if slug, ok := meta["slug"]; ok && fmt.Sprint(slug) != stem {
		report("slug %q does not match filename", fmt.Sprint(slug))
	}
	return problems, nil
}

// findCollisions groups records by slug and returns the groups with more
// than one record, plus records with an empty slug, ordered by first line
func findCollisions(records []source.SourceRecord, maxLength int) []Collision {
	lines := make(map[string][]int)
	for _, record := range records {
		slug := markdown.SlugifyMax(record.PrimaryText, maxLength)
		lines[slug] = append(lines[slug], record.Line)
	}

	var collisions []Collision
	for slug, l := range lines {
		if len(l) > 1 || slug == "" {
			collisions = append(collisions, Collision{Slug: slug, Lines: l})
		}
	}
	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].Lines[0] < collisions[j].Lines[0]
	})
	return collisions
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = fmt.Sprint(line)
	}
	return strings.Join(parts, ", ")
}

func init() {
	collisionsCmd.Flags().StringVar(&pipeline, "pipeline", "qna", "Input schema: blog or qna")
	collisionsCmd.Flags().IntVar(&maxSlugLength, "max-slug-length", 100, "Maximum Q&A slug length (0 for unbounded)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(collisionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
