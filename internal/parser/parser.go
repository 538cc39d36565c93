// Package parser turns a Markdown file with YAML frontmatter into item fields.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds the item fields extracted from a Markdown file.
type Result struct {
	Title     string
	Kind      string
	SourceURL string
	Summary   string
	Tags      []string
	Body      string
}

type frontmatter struct {
	Title   string  `yaml:"title"`
	Kind    string  `yaml:"kind"`
	Type    string  `yaml:"type"`
	Source  string  `yaml:"source"`
	Summary string  `yaml:"summary"`
	Tags    tagList `yaml:"tags"`
}

// tagList accepts either a YAML sequence or a comma-separated string.
type tagList []string

func (t *tagList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		for _, s := range strings.Split(n.Value, ",") {
			*t = append(*t, s)
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := n.Decode(&items); err != nil {
			return err
		}
		*t = items
		return nil
	default:
		return fmt.Errorf("tags: unsupported yaml node at line %d", n.Line)
	}
}

// Parse extracts frontmatter fields, title, body and tags from raw Markdown.
// Kind defaults to "link" when a source is set and "note" otherwise.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)

	r := &Result{
		Title:     strings.TrimSpace(fm.Title),
		Kind:      strings.ToLower(strings.TrimSpace(fm.Kind)),
		SourceURL: strings.TrimSpace(fm.Source),
		Summary:   strings.TrimSpace(fm.Summary),
		Body:      strings.TrimSpace(body),
	}
	if r.Kind == "" {
		r.Kind = strings.ToLower(strings.TrimSpace(fm.Type))
	}
	if r.Kind == "" {
		r.Kind = "note"
		if r.SourceURL != "" {
			r.Kind = "link"
		}
	}
	if r.Title == "" {
		r.Title = headingTitle(body)
	}
	r.Tags = extractTags(body, fm.Tags)
	return r, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no valid frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (frontmatter, string) {
	const delim = "---"
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return frontmatter{}, string(data)
	}
	return fm, body
}

// extractTags merges frontmatter tags with inline #tags, keeping first-seen
// order and dropping blanks and case-insensitive duplicates.
func extractTags(body string, fmTags []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			return
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}

	for _, t := range fmTags {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// headingTitle returns the first H1 heading in body, or "".
func headingTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
