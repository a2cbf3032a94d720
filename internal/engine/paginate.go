package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/routinely/routinely-server/internal/model"
)

// suggestionNamespace seeds SHA-1 suggestion IDs. Changing it invalidates
// every client-side cache key, so it is fixed for the life of the product.
var suggestionNamespace = uuid.MustParse("3f2e9a4c-8b71-4d2a-9c46-5a1fb0d8e7a2")

// SuggestionID derives a stable identifier from the slot's content. Repeated
// requests over unchanged inputs must produce the same ID for the same slot,
// so clients can dedupe and cache; it is never random.
func SuggestionID(t model.ActivityType, start, end time.Time) string {
	canonical := string(t) + "|" + start.UTC().Format(time.RFC3339) + "|" + end.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(suggestionNamespace, []byte(canonical)).String()
}

// Paginate stable-sorts suggestions by (score desc, start asc) and returns
// the requested slice. Offsets past the end yield an empty page with the
// correct total.
func Paginate(all []model.Suggestion, offset, limit int) model.SuggestionPage {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].StartTime.Before(all[j].StartTime)
	})

	total := len(all)
	page := model.SuggestionPage{
		Suggestions: []model.Suggestion{},
		Total:       total,
		HasMore:     offset+limit < total,
	}
	if offset >= total {
		return page
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page.Suggestions = all[offset:end]
	return page
}
