package relevance

import (
	"sort"
	"time"

	"curator/internal/core"

	"github.com/google/uuid"
)

// Assemble builds a ranked digest from scored candidates. Candidates
// are taken greedily in score order; one whose primary tag already
// occurs categoryCap times in the selection is skipped. The cap is a
// selection-time constraint, not a score mutation, so Score itself
// stays deterministic and side-effect-free.
func Assemble(userID string, scored []core.ScoredArticle, articles map[string]core.Article, size, categoryCap int, now time.Time) core.DigestRun {
	ranked := make([]core.ScoredArticle, len(scored))
	copy(ranked, scored)

	// Ties break on article ID so assembly is deterministic.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ArticleID < ranked[j].ArticleID
	})

	selected := make([]string, 0, size)
	tagCounts := make(map[string]int)

	for _, candidate := range ranked {
		if len(selected) >= size {
			break
		}

		article, ok := articles[candidate.ArticleID]
		if !ok {
			continue
		}

		tag := article.PrimaryTag()
		if categoryCap > 0 && tag != "" && tagCounts[tag] >= categoryCap {
			continue
		}

		selected = append(selected, candidate.ArticleID)
		if tag != "" {
			tagCounts[tag]++
		}
	}

	return core.DigestRun{
		ID:          uuid.NewString(),
		UserID:      userID,
		GeneratedAt: now,
		ArticleIDs:  selected,
	}
}
