// Package extract turns captured DOM trees into markdown for LLM
// consumption: serialize the enhanced tree, split popups from main
// content, and convert to markdown.
package extract

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Converter converts reconstructed HTML to markdown.
type Converter struct {
	md        *converter.Converter
	sanitizer *bluemonday.Policy
}

// NewConverter creates a Converter with commonmark and table support.
func NewConverter() *Converter {
	return &Converter{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Markdown converts HTML to markdown, trimmed. Empty input yields
// empty output.
func (c *Converter) Markdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	result, err := c.md.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("extract: convert to markdown: %w", err)
	}
	return strings.TrimSpace(result), nil
}

// SanitizedMarkdown strips scripts, event handlers, and other unsafe
// markup before converting. For HTML from untrusted captures that is
// shown to users rather than fed to a model.
func (c *Converter) SanitizedMarkdown(rawHTML string) (string, error) {
	return c.Markdown(c.sanitizer.Sanitize(rawHTML))
}
