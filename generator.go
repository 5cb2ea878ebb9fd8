package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const (
	titleVariable    = "{{.title}}"
	categoryVariable = "{{.category}}"
)

// ErrGenerationFailed marks a failed body generation. The record is skipped
// and the run continues.
var ErrGenerationFailed = errors.New("content generation failed")

var errEmptyBody = fmt.Errorf("%w: empty body", ErrGenerationFailed)

// ContentGenerator produces an article body for a topic and category
type ContentGenerator interface {
	Generate(topic, category string) (string, error)
}

// GeneratorFunc adapts a function to ContentGenerator
type GeneratorFunc func(topic, category string) (string, error)

// Generate calls f(topic, category)
func (f GeneratorFunc) Generate(topic, category string) (string, error) {
	return f(topic, category)
}

// completeFunc sends a system and user prompt and returns the response text
type completeFunc func(systemPrompt, userPrompt string) (string, error)

// WriterGenerator generates article bodies with the writer agent. Each call
// is a single attempt; there is no retry.
type WriterGenerator struct {
	settings WriterSettings
	prompts  Prompts
	complete completeFunc
}

// NewWriterGenerator creates a generator backed by the Anthropic API
func NewWriterGenerator(apiKey string, settings WriterSettings, prompts Prompts) (*WriterGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required: use --api-key flag or ANTHROPIC_API_KEY environment variable")
	}

	g := &WriterGenerator{settings: settings, prompts: prompts}
	g.complete = func(systemPrompt, userPrompt string) (string, error) {
		return promptAnthropic(apiKey, g.settings, systemPrompt, userPrompt)
	}

	if err := g.validatePrompts(); err != nil {
		return nil, err
	}
	return g, nil
}

// validatePrompts checks that the user prompt template contains the
// required variables
func (g *WriterGenerator) validatePrompts() error {
	for _, variable := range []string{titleVariable, categoryVariable} {
		if !strings.Contains(g.prompts.User, variable) {
			return fmt.Errorf("writer user prompt template must contain %s variable", variable)
		}
	}
	return nil
}

// Generate writes an article body for the given title and category
func (g *WriterGenerator) Generate(title, category string) (string, error) {
	log.Printf("  → Generating article for: %s", title)

	userPrompt := renderUserPrompt(g.prompts.User, title, category)
	debugLog("User prompt:\n%s", userPrompt)

	text, err := g.complete(g.prompts.System, userPrompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyBody
	}
	return text, nil
}

func renderUserPrompt(template, title, category string) string {
	return strings.NewReplacer(titleVariable, title, categoryVariable, category).Replace(template)
}

func promptAnthropic(apiKey string, writer WriterSettings, systemPrompt, userPrompt string) (string, error) {
	settings := types.RequestSettings{
		Model:       writer.Model,
		MaxTokens:   writer.MaxTokens,
		Temperature: writer.Temperature,
	}
	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, "", apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("writer agent failed: %w", err)
	}

	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}
