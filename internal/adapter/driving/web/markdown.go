// Package web renders review comment bodies for display.
package web

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
	textStripper  *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe(), gmhtml.WithHardWraps()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
	textStripper = bluemonday.StrictPolicy()
}

// RenderCommentBody converts a comment body written in markdown to sanitized
// HTML. Returns empty string for empty input.
func RenderCommentBody(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// Excerpt returns the body as a single line of plain text, cut to at most
// maxRunes runes with a trailing ellipsis when shortened.
func Excerpt(src string, maxRunes int) string {
	rendered := RenderCommentBody(src)
	if rendered == "" {
		return ""
	}

	text := html.UnescapeString(textStripper.Sanitize(rendered))
	text = strings.Join(strings.Fields(text), " ")

	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	return strings.TrimRight(string(runes[:maxRunes]), " ") + "…"
}
