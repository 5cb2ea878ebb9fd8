package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StripTitleHeading removes a leading level-1 heading from body when it
// repeats title. Headings are compared by slug, so case and punctuation
// differences are ignored. Any other body is returned unchanged.
func StripTitleHeading(body, title string) string {
	want := Slugify(title)
	if want == "" {
		return body
	}

	src := []byte(body)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	heading, ok := doc.FirstChild().(*ast.Heading)
	if !ok || heading.Level != 1 {
		return body
	}
	lines := heading.Lines()
	if lines.Len() == 0 {
		return body
	}

	var headingText bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		headingText.Write(seg.Value(src))
		headingText.WriteByte(' ')
	}
	if Slugify(headingText.String()) != want {
		return body
	}

	stop := lines.At(lines.Len() - 1).Stop
	if stop > 0 && src[stop-1] == '\n' {
		stop--
	}
	end := skipLine(src, stop)
	if !isATX(src, lines.At(0).Start) {
		// setext underline
		end = skipLine(src, end)
	}
	return strings.TrimLeft(string(src[end:]), "\n")
}

// skipLine returns the offset just past the newline that ends the line
// containing pos.
func skipLine(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if nl := bytes.IndexByte(src[pos:], '\n'); nl >= 0 {
		return pos + nl + 1
	}
	return len(src)
}

func isATX(src []byte, pos int) bool {
	start := bytes.LastIndexByte(src[:pos], '\n') + 1
	return strings.HasPrefix(strings.TrimLeft(string(src[start:pos]), " "), "#")
}
