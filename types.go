package main

import "log"

// Pipeline selects the input schema and document layout
type Pipeline string

const (
	PipelineBlog Pipeline = "blog"
	PipelineQnA  Pipeline = "qna"
)

// ProcessingStatus represents the outcome status of processing a record
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusDryRun  ProcessingStatus = "dry-run"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing each record
type ProcessingResult struct {
	Line      int
	Title     string
	Slug      string
	Status    ProcessingStatus
	Filename  string
	Collision bool // Filename was already written earlier in the same run
	Error     error
}

var debugEnabled bool

// SetDebugMode enables or disables debug logging
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}
