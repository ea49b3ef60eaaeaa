package web

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
	"github.com/yuin/goldmark"
)

// FuncMap returns the helpers available in every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"relativeTime": FormatRelativeTime,
		"fileSize":     FormatFileSize,
		"markdown":     RenderMarkdown,
		"join":         strings.Join,
		"lower":        strings.ToLower,
	}
}

// FormatRelativeTime formats a time.Time as a relative time string like "3 days ago".
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return timediff.TimeDiff(t)
}

// FormatFileSize formats a file size in bytes to a human-readable string.
func FormatFileSize(bytes int64) string {
	size, err := safecast.Convert[uint64](bytes)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(size)
}

// RenderMarkdown renders generated markdown. Raw HTML in the source is dropped.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		log.Warn("Failed to render markdown", "error", err)
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>") //nolint:gosec
	}
	return template.HTML(buf.String()) //nolint:gosec
}
