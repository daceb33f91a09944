// Package content turns raw editor documents into servable HTML.
//
// The editor stores a page's document as structured JSON (html, css, and a
// component tree), but rows written before the visual editor existed hold a
// bare HTML string in the same column.  Parse models that ambiguity as a
// tagged variant instead of sniffing types at every call site: a document is
// either Structured or Legacy, and parsing never fails—malformed JSON simply
// yields the Legacy variant.
package content

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the two document variants.
type Kind int

const (
	// KindLegacy marks a raw HTML string (or a stored filename) that
	// predates the structured editor format.
	KindLegacy Kind = iota
	// KindStructured marks a JSON editor document with html/css fields.
	KindStructured
)

// Document is the parsed form of a page's `content` column.
type Document struct {
	Kind       Kind
	HTML       string          // Structured: html field.  Legacy: the raw string.
	CSS        string          // Structured only.
	Components json.RawMessage // Structured only; opaque editor component tree.
}

// rawDoc accepts both the current field names and the editor-native aliases
// written by older clients.
type rawDoc struct {
	HTML       string          `json:"html"`
	CSS        string          `json:"css"`
	GJSHTML    string          `json:"gjs-html"`
	GJSCSS     string          `json:"gjs-css"`
	Components json.RawMessage `json:"components"`
}

// Parse converts a stored content string into a Document.  It never returns
// an error: anything that does not decode as a JSON object is treated as
// legacy raw HTML.
func Parse(raw string) Document {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return Document{Kind: KindLegacy, HTML: raw}
	}

	var rd rawDoc
	if err := json.Unmarshal([]byte(trimmed), &rd); err != nil {
		return Document{Kind: KindLegacy, HTML: raw}
	}

	html := rd.HTML
	if html == "" {
		html = rd.GJSHTML
	}
	css := rd.CSS
	if css == "" {
		css = rd.GJSCSS
	}

	return Document{
		Kind:       KindStructured,
		HTML:       html,
		CSS:        css,
		Components: rd.Components,
	}
}

// Empty reports whether the document carries nothing worth publishing.
func (d Document) Empty() bool {
	return strings.TrimSpace(d.HTML) == "" && strings.TrimSpace(d.CSS) == ""
}
