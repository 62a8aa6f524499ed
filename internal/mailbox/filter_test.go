package mailbox_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/mailbox"
)

func TestRelevanceFilter(t *testing.T) {
	f := mailbox.NewRelevanceFilter()

	cases := []struct {
		name  string
		email domain.ExtractedEmail
		want  bool
	}{
		{"subject keyword", domain.ExtractedEmail{Subject: "Summer INTERNSHIP 2025"}, true},
		{"body keyword", domain.ExtractedEmail{Body: "Please send your Resume by Friday"}, true},
		{"sender keyword", domain.ExtractedEmail{Sender: "careers@acme.test"}, true},
		{"substring match", domain.ExtractedEmail{Subject: "Jobs digest"}, true},
		{"unrelated", domain.ExtractedEmail{Subject: "Lunch?", Body: "pizza at noon", Sender: "bob@x.test"}, false},
		{"empty", domain.ExtractedEmail{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Relevant(tc.email))
		})
	}
}

func TestRelevanceFilterConcurrentUse(t *testing.T) {
	f := mailbox.NewRelevanceFilter()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := domain.ExtractedEmail{Subject: "weekly hiring update"}
			if i%2 == 0 {
				e = domain.ExtractedEmail{Subject: "groceries"}
			}
			assert.Equal(t, i%2 != 0, f.Relevant(e))
		}(i)
	}
	wg.Wait()
}
