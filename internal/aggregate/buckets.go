// Package aggregate groups entries into calendar-day buckets.
package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// Bucket holds the entries of one calendar day, newest first.
type Bucket struct {
	Day     string
	Entries []*domain.Entry
}

// Buckets is an ordered day → entries mapping, newest day first.
//
// It encodes as a JSON object whose key order is the bucket order, which a
// plain Go map cannot guarantee.
type Buckets []Bucket

// Count returns the total number of entries across buckets.
func (b Buckets) Count() int {
	n := 0
	for _, bucket := range b {
		n += len(bucket.Entries)
	}
	return n
}

// Index returns the position of day, or -1.
func (b Buckets) Index(day string) int {
	for i, bucket := range b {
		if bucket.Day == day {
			return i
		}
	}
	return -1
}

// Clone copies the bucket structure. Entries are immutable and shared.
func (b Buckets) Clone() Buckets {
	out := make(Buckets, 0, len(b))
	for _, bucket := range b {
		out = append(out, Bucket{
			Day:     bucket.Day,
			Entries: append([]*domain.Entry(nil), bucket.Entries...),
		})
	}
	return out
}

// MarshalJSON writes {"Jun 3": [...], "Jun 2": [...]} in bucket order.
func (b Buckets) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bucket := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(bucket.Day)
		if err != nil {
			return nil, err
		}
		entries := bucket.Entries
		if entries == nil {
			entries = []*domain.Entry{}
		}
		value, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object while keeping its key order.
func (b *Buckets) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("buckets: expected object, got %v", tok)
	}

	out := Buckets{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		day, ok := tok.(string)
		if !ok {
			return fmt.Errorf("buckets: expected string key, got %v", tok)
		}
		var entries []*domain.Entry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("buckets: day %q: %w", day, err)
		}
		out = append(out, Bucket{Day: day, Entries: entries})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = out
	return nil
}
