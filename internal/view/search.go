package view

import (
	"strings"
	"unicode/utf8"

	"github.com/MrSnakeDoc/logbook/internal/aggregate"
)

// MinSearchLength is the shortest query that filters the view; shorter
// queries show everything.
const MinSearchLength = 3

// Search returns the predicate for a search box value, or nil when q is
// too short to filter on.
func Search(q string) aggregate.Predicate {
	if utf8.RuneCountInString(strings.TrimSpace(q)) < MinSearchLength {
		return nil
	}
	return aggregate.ContainsText(q)
}
