// Package parser splits case-study documents into frontmatter and body and
// normalizes the frontmatter into models.CaseMeta.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result holds the output of parsing a content document.
type Result struct {
	Frontmatter map[string]any
	Body        string
}

// Parse extracts frontmatter and body from raw document bytes.
// Documents without frontmatter or with an unterminated block are returned
// whole as body. Invalid YAML yields nil Frontmatter and the text after the
// closing fence as body.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(normalized, "\n")

	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) && !bytes.Equal(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	// The closing fence must be a line of its own.
	if len(afterDelim) > 0 && afterDelim[0] != '\n' {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(afterDelim), "\n")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, body
	}
	return fm, body
}
