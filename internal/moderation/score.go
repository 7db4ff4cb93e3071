package moderation

import (
	"sort"

	"github.com/and161185/storefront/internal/model"
)

// CompletenessScore rates how complete a listing is, 0 to 100. Advisory only;
// it orders the review queue and never gates a transition.
func CompletenessScore(c model.CatalogItem) int {
	score := 0
	if len(c.Name) > 0 {
		score += 15
		if len(c.Name) >= 10 {
			score += 5
		}
	}
	if len(c.Description) > 0 {
		score += 10
		if len(c.Description) >= 50 {
			score += 10
		}
	}
	if len(c.Images) > 0 {
		score += 20
		if len(c.Images) >= 3 {
			score += 5
		}
	}
	if c.Price > 0 {
		score += 15
	}
	if len(c.Sizes) > 0 {
		score += 15
		if len(c.Sizes) >= 3 {
			score += 5
		}
	}
	return score
}

// QueueEntry is a pending item with its triage score.
type QueueEntry struct {
	Item  model.CatalogItem `json:"item"`
	Score int               `json:"score"`
}

// Triage orders items by score, most complete first, then oldest first.
func Triage(items []model.CatalogItem) []QueueEntry {
	out := make([]QueueEntry, 0, len(items))
	for _, it := range items {
		out = append(out, QueueEntry{Item: it, Score: CompletenessScore(it)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.CreatedAt.Before(out[j].Item.CreatedAt)
	})
	return out
}
