package similarity

import (
	"fmt"
	"math"
	"testing"
)

func TestSimilarityIdentity(t *testing.T) {
	texts := []string{
		"define the term stack",
		"What is the difference between a process and a thread?",
	}
	for _, text := range texts {
		if got := Similarity(text, text); math.Abs(got-1.0) > 1e-9 {
			t.Errorf("Similarity(%q, same) = %f, want 1.0", text, got)
		}
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	a := "explain how merge sort divides the input"
	b := "describe the divide step of merge sort"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity must be symmetric")
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	if got := Similarity("alpha beta gamma", "delta epsilon zeta"); got != 0 {
		t.Errorf("disjoint texts similarity = %f, want 0", got)
	}
}

func TestSimilarityShortTokensDropped(t *testing.T) {
	// Every token is shorter than three characters, so both vectors are empty.
	if got := Similarity("a an of", "a an of"); got != 0 {
		t.Errorf("stop-noise-only similarity = %f, want 0", got)
	}
	// Shared short tokens must not contribute.
	withShort := Similarity("is stack a structure", "is queue a structure")
	withoutShort := Similarity("stack structure", "queue structure")
	if math.Abs(withShort-withoutShort) > 1e-9 {
		t.Errorf("short tokens affected score: %f vs %f", withShort, withoutShort)
	}
}

func TestSimilarityRange(t *testing.T) {
	pairs := [][2]string{
		{"define recursion", "define recursion in programming"},
		{"compare arrays and lists", "contrast lists with arrays"},
		{"", "anything"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		if got < 0 || got > 1+1e-9 {
			t.Errorf("Similarity(%q, %q) = %f, out of [0, 1]", p[0], p[1], got)
		}
	}
}

func TestFindSimilarRankingAndThreshold(t *testing.T) {
	corpus := []Document{
		{ID: 1, Text: "define the stack data structure"},
		{ID: 2, Text: "define the queue data structure"},
		{ID: 3, Text: "explain tail recursion"},
		{ID: 4, Text: "define the stack data structure"}, // exact duplicate of the query
	}

	matches := FindSimilar("define the stack data structure", corpus, 0.5)
	if len(matches) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(matches))
	}
	if matches[0].Score < matches[len(matches)-1].Score {
		t.Error("matches not sorted by descending score")
	}
	// Both exact duplicates score 1.0; IDs break the tie.
	if matches[0].ID != 1 || math.Abs(matches[0].Score-1.0) > 1e-9 {
		t.Errorf("best match = %+v, want ID 1 with score 1.0", matches[0])
	}
	if matches[1].ID != 4 {
		t.Errorf("second match ID = %d, want 4", matches[1].ID)
	}
	for _, m := range matches {
		if m.ID == 3 {
			t.Error("unrelated document passed the 0.5 threshold")
		}
	}
}

func TestFindSimilarTruncatesToTen(t *testing.T) {
	var corpus []Document
	for i := int64(1); i <= 25; i++ {
		corpus = append(corpus, Document{ID: i, Text: fmt.Sprintf("define the stack structure variant %d", i)})
	}
	matches := FindSimilar("define the stack structure", corpus, 0)
	if len(matches) != 10 {
		t.Errorf("expected 10 matches, got %d", len(matches))
	}
}

func TestFindSimilarDoesNotMutateCorpus(t *testing.T) {
	corpus := []Document{
		{ID: 2, Text: "beta"},
		{ID: 1, Text: "alpha"},
	}
	_ = FindSimilar("alpha", corpus, 0)
	if corpus[0].ID != 2 || corpus[1].ID != 1 {
		t.Error("FindSimilar reordered the corpus")
	}
}
