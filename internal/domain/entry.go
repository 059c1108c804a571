package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entry is a single logged event. It is created once by ingestion and
// never updated; its content items share its lifecycle.
type Entry struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	ID        string `json:"id"`
	ProjectID string `json:"projectId"`

	// CreatedAt is assigned by the store, truncated to the millisecond.
	// It is the only ordering key and decides the entry's day bucket.
	CreatedAt time.Time `json:"createdAt"`

	// Seq is the store-assigned insertion sequence. It only breaks ties
	// between entries sharing the same CreatedAt.
	Seq int64 `json:"seq"`

	// ─────────────────────────────
	// Payload
	// ─────────────────────────────

	Content []ContentItem `json:"content"`

	// Project is filled in by the store on read so clients can render the
	// owning project without a second request.
	Project *ProjectSummary `json:"project,omitempty"`
}

// ContentItem is one textual payload of an entry.
type ContentItem struct {
	ID        string    `json:"id"`
	EntryID   string    `json:"logId"`
	CreatedAt time.Time `json:"createdAt"`
	Content   string    `json:"content"`
}

// Structured re-parses the canonical text as JSON. It reports false for
// plain text and for scalars, so only objects and arrays count as
// structured payloads.
func (c ContentItem) Structured() (any, bool) {
	trimmed := strings.TrimSpace(c.Content)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, false
	}
	return v, true
}

// Text joins every content item with a single space.
func (e *Entry) Text() string {
	parts := make([]string, 0, len(e.Content))
	for _, item := range e.Content {
		parts = append(parts, item.Content)
	}
	return strings.Join(parts, " ")
}

// NewerThan reports whether e sorts before other in newest-first order.
func (e *Entry) NewerThan(other *Entry) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.After(other.CreatedAt)
	}
	return e.Seq > other.Seq
}

// NewContentItems builds the content items for a freshly created entry.
func NewContentItems(entryID string, createdAt time.Time, contents []string) []ContentItem {
	items := make([]ContentItem, 0, len(contents))
	for _, text := range contents {
		items = append(items, ContentItem{
			ID:        NewID(),
			EntryID:   entryID,
			CreatedAt: createdAt,
			Content:   text,
		})
	}
	return items
}

// CanonicalContents converts raw JSON values into the text stored for
// each content item. Strings keep their value, objects and arrays are
// compacted, and other scalars keep their literal form.
func CanonicalContents(raw []json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: content must be a non-empty list", ErrInvalidInput)
	}

	out := make([]string, 0, len(raw))
	for i, value := range raw {
		text, err := canonicalValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: content[%d]: %v", ErrInvalidInput, i, err)
		}
		out = append(out, text)
	}
	return out, nil
}

func canonicalValue(value json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		if !json.Valid(trimmed) {
			return "", fmt.Errorf("invalid json value")
		}
		return string(trimmed), nil
	}
}
