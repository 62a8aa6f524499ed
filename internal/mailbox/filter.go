package mailbox

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"autotasker-engine/internal/domain"
)

// RelevanceTerms gate which extracted emails reach the classifier.
var RelevanceTerms = []string{
	"job",
	"internship",
	"position",
	"opportunity",
	"hiring",
	"recruitment",
	"career",
	"interview",
	"application",
	"apply",
	"vacancy",
	"opening",
	"deadline",
	"resume",
	"placement",
}

// RelevanceFilter is a substring match over subject, body and sender.
// Rejections are not recorded anywhere.
type RelevanceFilter struct {
	mu      sync.Mutex
	matcher *ahocorasick.Matcher
}

func NewRelevanceFilter() *RelevanceFilter {
	return &RelevanceFilter{matcher: ahocorasick.NewStringMatcher(RelevanceTerms)}
}

func (f *RelevanceFilter) Relevant(e domain.ExtractedEmail) bool {
	text := strings.ToLower(e.Subject + " " + e.Body + " " + e.Sender)

	// Matcher keeps per-call state.
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matcher.Match([]byte(text))) > 0
}
