package mailbox

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"autotasker-engine/internal/domain"
)

// SearchTerms is the keyword disjunction sent to the provider.
var SearchTerms = []string{
	"job opportunity",
	"internship",
	"position",
	"hiring",
	"recruitment",
	"career",
	"interview",
	"application",
	"deadline",
	"apply",
	"vacancy",
	"opening",
	"placement",
}

type Query struct {
	After time.Time
	Terms []string
}

// BuildQuery bounds the search to the last daysBack days (UTC) and the fixed vocabulary.
func BuildQuery(daysBack int, now time.Time) (Query, error) {
	if daysBack <= 0 {
		return Query{}, fmt.Errorf("%w: days_back must be >= 1, got %d", domain.ErrInvalidArgument, daysBack)
	}
	terms := make([]string, len(SearchTerms))
	copy(terms, SearchTerms)
	return Query{
		After: now.UTC().AddDate(0, 0, -daysBack),
		Terms: terms,
	}, nil
}

// String renders the Gmail search syntax: after:YYYY/MM/DD ("a" OR "b").
func (q Query) String() string {
	quoted := make([]string, 0, len(q.Terms))
	for _, t := range q.Terms {
		quoted = append(quoted, strconv.Quote(t))
	}
	s := "after:" + q.After.UTC().Format("2006/01/02")
	if len(quoted) > 0 {
		s += " (" + strings.Join(quoted, " OR ") + ")"
	}
	return s
}
