package main

import (
	"fmt"
	"regexp"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// markupStart matches the opening of a tag, closing tag, comment or doctype
var markupStart = regexp.MustCompile(`<[a-zA-Z/!]`)

// AnswerConverter turns HTML answers (as exported by most FAQ tools) into
// markdown before they become document bodies
type AnswerConverter struct {
	converter *md.Converter
}

// NewAnswerConverter creates a converter with the default commonmark rules
func NewAnswerConverter() *AnswerConverter {
	return &AnswerConverter{converter: md.NewConverter("", true, nil)}
}

// Convert converts an HTML answer to markdown. Answers without any markup
// are returned unchanged so plain text is not escaped.
func (c *AnswerConverter) Convert(answer string) (string, error) {
	if !markupStart.MatchString(answer) {
		return answer, nil
	}

	markdown, err := c.converter.ConvertString(answer)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}
