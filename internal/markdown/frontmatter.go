package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the frontmatter block.
const Delimiter = "---"

// Field is a single frontmatter entry.
type Field struct {
	Key   string
	Value any
}

// Fields keeps frontmatter entries in output order.
type Fields []Field

// Add appends a field and returns the extended list.
func (f Fields) Add(key string, value any) Fields {
	return append(f, Field{Key: key, Value: value})
}

// BuildDocument composes the full text of a markdown file: the delimited
// frontmatter block, a blank line, then body verbatim.
//
// String values are written as double-quoted YAML scalars with quotes,
// backslashes and control characters escaped. String slices are written as
// flow sequences of double-quoted scalars, e.g. ["a", "b"]. Any other value
// type is rejected.
func BuildDocument(fields Fields, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")

	if len(fields) > 0 {
		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for _, field := range fields {
			if field.Key == "" {
				return "", fmt.Errorf("frontmatter field with empty key")
			}
			value, err := valueNode(field.Value)
			if err != nil {
				return "", fmt.Errorf("frontmatter field %q: %w", field.Key, err)
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field.Key}
			mapping.Content = append(mapping.Content, key, value)
		}

		out, err := yaml.Marshal(mapping)
		if err != nil {
			return "", fmt.Errorf("encoding frontmatter: %w", err)
		}
		buf.Write(out)
	}

	buf.WriteString(Delimiter + "\n\n")
	buf.WriteString(body)
	return buf.String(), nil
}

func valueNode(value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case string:
		return quoted(v), nil
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, item := range v {
			seq.Content = append(seq.Content, quoted(item))
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}

// ParseDocument reads a document produced by BuildDocument (or any YAML
// frontmatter document) and returns its metadata and body. A document
// without frontmatter yields empty metadata and the full source as body.
func ParseDocument(src []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}
