// Package similarity implements bag-of-words cosine similarity for
// duplicate and near-duplicate question detection. Unlike the hashed
// fingerprint used for coarse bucketing, comparisons here build exact
// term-frequency vectors over the vocabulary of the two texts involved.
package similarity

import (
	"math"
	"sort"

	"github.com/pavelanni/qbank/internal/textutil"
)

// minTokenLen drops short stop-noise tokens ("a", "is", "of").
const minTokenLen = 3

// maxResults caps a FindSimilar result list.
const maxResults = 10

// Document is a corpus entry for FindSimilar.
type Document struct {
	ID   int64
	Text string
}

// Match is one scored result from FindSimilar.
type Match struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Similarity returns the cosine similarity of two texts in [0, 1].
// Two texts with no usable tokens have similarity 0 by definition.
func Similarity(a, b string) float64 {
	ta := terms(a)
	tb := terms(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, ca := range ta {
		if cb, ok := tb[term]; ok {
			dot += float64(ca) * float64(cb)
		}
		normA += float64(ca) * float64(ca)
	}
	for _, cb := range tb {
		normB += float64(cb) * float64(cb)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FindSimilar scores every corpus document against the query and returns
// those at or above threshold, best first, capped at ten. It never mutates
// the corpus; persisting found pairs is the caller's business.
func FindSimilar(query string, corpus []Document, threshold float64) []Match {
	var matches []Match
	for _, doc := range corpus {
		score := Similarity(query, doc.Text)
		if score >= threshold {
			matches = append(matches, Match{ID: doc.ID, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

func terms(text string) map[string]int {
	tf := make(map[string]int)
	for _, tok := range textutil.Tokenize(text) {
		if len(tok) < minTokenLen {
			continue
		}
		tf[tok]++
	}
	return tf
}
