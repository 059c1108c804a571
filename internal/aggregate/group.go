package aggregate

import (
	"slices"
	"strings"

	"github.com/MrSnakeDoc/logbook/internal/domain"
)

// Predicate selects entries for a filtered view.
type Predicate func(*domain.Entry) bool

// GroupByDay buckets entries by their calendar day.
//
// Input is expected newest first; bucket order is first-seen order, which
// is then newest-day-first. Input in any other order is re-sorted on a
// copy before bucketing so the output invariant does not depend on the
// store.
func GroupByDay(entries []*domain.Entry, cal domain.Calendar) Buckets {
	if len(entries) == 0 {
		return Buckets{}
	}

	if !isNewestFirst(entries) {
		entries = slices.Clone(entries)
		slices.SortStableFunc(entries, compareNewestFirst)
	}

	out := Buckets{}
	positions := make(map[string]int)
	for _, entry := range entries {
		day := cal.Label(entry.CreatedAt)
		i, ok := positions[day]
		if !ok {
			i = len(out)
			positions[day] = i
			out = append(out, Bucket{Day: day})
		}
		out[i].Entries = append(out[i].Entries, entry)
	}
	return out
}

// Filter projects buckets through pred. The input is never modified;
// buckets left without entries are dropped. A nil pred returns a copy.
func Filter(buckets Buckets, pred Predicate) Buckets {
	if pred == nil {
		return buckets.Clone()
	}

	out := make(Buckets, 0, len(buckets))
	for _, bucket := range buckets {
		kept := make([]*domain.Entry, 0, len(bucket.Entries))
		for _, entry := range bucket.Entries {
			if pred(entry) {
				kept = append(kept, entry)
			}
		}
		if len(kept) > 0 {
			out = append(out, Bucket{Day: bucket.Day, Entries: kept})
		}
	}
	return out
}

// ContainsText matches entries with any content item containing q,
// case-insensitively. A blank q yields a nil predicate (no filtering).
func ContainsText(q string) Predicate {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return nil
	}
	return func(e *domain.Entry) bool {
		for _, item := range e.Content {
			if strings.Contains(strings.ToLower(item.Content), needle) {
				return true
			}
		}
		return false
	}
}

func isNewestFirst(entries []*domain.Entry) bool {
	for i := 1; i < len(entries); i++ {
		if entries[i].NewerThan(entries[i-1]) {
			return false
		}
	}
	return true
}

func compareNewestFirst(a, b *domain.Entry) int {
	switch {
	case a.NewerThan(b):
		return -1
	case b.NewerThan(a):
		return 1
	default:
		return 0
	}
}
