package userdata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// DescribeFormat selects the output of Describe.
type DescribeFormat string

const (
	// DescribeText is an indented tree, one line per part and header.
	DescribeText DescribeFormat = "text"
	// DescribeJSON is a JSON array of PartSummary.
	DescribeJSON DescribeFormat = "json"
)

// PartSummary is the JSON form of a part in Describe output.
type PartSummary struct {
	Index       int      `json:"index"`
	Identifier  string   `json:"identifier"`
	ContentType string   `json:"content_type"`
	Directive   string   `json:"directive,omitempty"`
	Size        int      `json:"size"`
	Headers     []Header `json:"headers,omitempty"`
}

// Summarize returns one summary per part, in order.
func Summarize(parts []Part) []PartSummary {
	out := make([]PartSummary, len(parts))
	for i, p := range parts {
		raw, _ := p.Raw()
		out[i] = PartSummary{
			Index:       i + 1,
			Identifier:  p.identifier,
			ContentType: p.contentType,
			Directive:   p.directive,
			Size:        len(raw),
			Headers:     p.Headers(),
		}
	}
	return out
}

// Describe renders a human readable overview of parts.
func Describe(parts []Part, format DescribeFormat) (string, error) {
	switch format {
	case DescribeText, "":
		return describeText(Summarize(parts)), nil
	case DescribeJSON:
		b, err := json.MarshalIndent(Summarize(parts), "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("%w: unknown describe format %q", ErrInvalidOption, format)
	}
}

// Describe is Describe applied to the document's parts.
func (d *Document) Describe(format DescribeFormat) (string, error) {
	return Describe(d.parts, format)
}

// describeText formats the parts as an ASCII tree.
func describeText(parts []PartSummary) string {
	var sb strings.Builder
	noun := "parts"
	if len(parts) == 1 {
		noun = "part"
	}
	fmt.Fprintf(&sb, "User-data document (%d %s)\n", len(parts), noun)
	for i, p := range parts {
		connector, childPrefix := "├─ ", "  │  "
		if i == len(parts)-1 {
			connector, childPrefix = "└─ ", "     "
		}
		sb.WriteString("  " + connector + describePart(p) + "\n")
		for j, h := range p.Headers {
			hc := "├─ "
			if j == len(p.Headers)-1 {
				hc = "└─ "
			}
			fmt.Fprintf(&sb, "%s%s%s: %s\n", childPrefix, hc, h.Name, h.Value)
		}
	}
	return sb.String()
}

func describePart(p PartSummary) string {
	details := []string{fmt.Sprintf("size=%s", humanize.IBytes(uint64(p.Size)))}
	if p.Directive != "" {
		details = append([]string{fmt.Sprintf("directive=%q", p.Directive)}, details...)
	}
	return fmt.Sprintf("%s %s (%s)", p.Identifier, p.ContentType, strings.Join(details, ", "))
}
