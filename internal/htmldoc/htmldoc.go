// Package htmldoc holds the small amount of HTML handling the workflow needs:
// wrapping extracted resume text for the editor and reading text back out of
// edited documents.
package htmldoc

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Wrap turns plain text into minimal editor HTML. Blank lines separate
// paragraphs, single newlines become line breaks.
func Wrap(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(normalized) == "" {
		return "<p></p>"
	}

	var b strings.Builder
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(line))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// PlainText extracts readable text from an HTML fragment with collapsed
// whitespace.
func PlainText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	parts := make([]string, 0)
	doc.Find("p, li, h1, h2, h3, h4, h5, h6, td").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if text := collapse(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return collapse(doc.Text()), nil
	}
	return strings.Join(parts, "\n"), nil
}

// Coverage reports which keywords occur in the document text, case
// insensitively. Missing keywords keep their input order.
type Coverage struct {
	Present []string `json:"present"`
	Absent  []string `json:"absent"`
}

func KeywordCoverage(fragment string, keywords []string) (Coverage, error) {
	text, err := PlainText(fragment)
	if err != nil {
		return Coverage{}, err
	}
	lower := strings.ToLower(text)

	out := Coverage{Present: []string{}, Absent: []string{}}
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle == "" {
			continue
		}
		if strings.Contains(lower, needle) {
			out.Present = append(out.Present, kw)
		} else {
			out.Absent = append(out.Absent, kw)
		}
	}
	return out, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
