// Package classifier labels question text along four pedagogical axes using
// the lexical tables in the taxonomy package. Classification is a pure
// function: the same text and type always produce the same record, and no
// input is ever rejected. A text nothing matches on simply comes back as a
// low-confidence generic classification with NeedsReview set.
package classifier

import (
	"math"
	"strings"

	"github.com/pavelanni/qbank/internal/model"
	"github.com/pavelanni/qbank/internal/taxonomy"
	"github.com/pavelanni/qbank/internal/textutil"
)

// needsReviewThreshold marks classifications a human should look at.
const needsReviewThreshold = 0.7

// readabilityFallback is returned when the text has no sentences to measure.
const readabilityFallback = 8.0

// Classify produces the full pedagogical label for a question.
func Classify(text string, declaredType model.QuestionType) model.Classification {
	norm := textutil.Normalize(text)
	words := textutil.Words(text)

	_, level, verbMatched := taxonomy.FindCognitiveVerb(norm)
	if !verbMatched {
		level = model.LevelUnderstanding
	}

	dimension, dimMatched := detectDimension(norm, verbMatched)
	if declaredType == model.TypeEssay && dimension == model.DimensionFactual {
		// Essay items ask for elaborated answers; a bare factual label is
		// never the right fit for them.
		dimension = model.DimensionConceptual
	}

	confidence := scoreConfidence(norm, declaredType, level, len(words), verbMatched, dimMatched)

	return model.Classification{
		CognitiveLevel:     level,
		KnowledgeDimension: dimension,
		Difficulty:         detectDifficulty(norm, declaredType, level, len(words), punctuationComplexity(text)),
		Confidence:         confidence,
		QualityScore:       scoreQuality(text, declaredType, len(words)),
		ReadabilityScore:   Readability(text),
		Fingerprint:        Fingerprint(text),
		NeedsReview:        confidence < needsReviewThreshold,
	}
}

// detectDimension scans the dimension verb table first. The indicator-phrase
// fallback only kicks in when the cognitive scan also found nothing, which
// keeps verb-bearing questions from being relabeled by an incidental phrase.
func detectDimension(norm string, verbMatched bool) (model.KnowledgeDimension, bool) {
	if _, dim, ok := taxonomy.FindDimensionVerb(norm); ok {
		return dim, true
	}
	if !verbMatched {
		if dim, ok := taxonomy.FindIndicator(norm); ok {
			return dim, true
		}
	}
	return model.DimensionConceptual, false
}

func scoreConfidence(norm string, declaredType model.QuestionType, level model.CognitiveLevel, wordCount int, verbMatched, dimMatched bool) float64 {
	confidence := 0.5
	if verbMatched {
		confidence += 0.2
	}
	if dimMatched {
		confidence += 0.1
	}
	switch {
	case wordCount < 8:
		confidence -= 0.1
	case wordCount > 25:
		confidence += 0.1
	}
	if declaredType == model.TypeMCQ && strings.Contains(norm, "which of the following") {
		confidence += 0.1
	}
	if declaredType == model.TypeEssay && level == model.LevelCreating {
		confidence += 0.1
	}
	return clamp(confidence, 0.1, 1.0)
}

// detectDifficulty applies three policies in strict order: explicit keyword
// override, structural signals, then a cognitive-level default.
func detectDifficulty(norm string, declaredType model.QuestionType, level model.CognitiveLevel, wordCount, punctCount int) model.Difficulty {
	if taxonomy.HasDifficultKeyword(norm) {
		return model.DifficultyDifficult
	}
	if taxonomy.HasEasyKeyword(norm) {
		return model.DifficultyEasy
	}

	if declaredType == model.TypeEssay || punctCount >= 4 || wordCount > 30 {
		return model.DifficultyDifficult
	}

	switch level {
	case model.LevelRemembering, model.LevelUnderstanding:
		return model.DifficultyEasy
	case model.LevelEvaluating, model.LevelCreating:
		return model.DifficultyDifficult
	default:
		return model.DifficultyAverage
	}
}

// punctuationComplexity counts clause-separating punctuation in the raw text.
func punctuationComplexity(text string) int {
	count := 0
	for _, r := range text {
		switch r {
		case ',', ';', ':', '(', ')':
			count++
		}
	}
	return count
}

func scoreQuality(text string, declaredType model.QuestionType, wordCount int) float64 {
	quality := 1.0
	switch {
	case wordCount < 5:
		quality -= 0.3
	case wordCount > 50:
		quality -= 0.2
	}

	trimmed := strings.TrimSpace(text)
	if !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "?") && !strings.HasSuffix(trimmed, "!") {
		quality -= 0.1
	}
	if strings.Contains(text, "  ") {
		quality -= 0.05
	}
	if declaredType == model.TypeMCQ &&
		!strings.Contains(trimmed, "?") &&
		!strings.Contains(strings.ToLower(trimmed), "which") {
		quality -= 0.1
	}
	return clamp(quality, 0, 1)
}

// Readability estimates a Flesch-Kincaid grade level for the text. Texts
// with no sentences get a fixed middle-school fallback rather than an error.
func Readability(text string) float64 {
	sentences := textutil.SentenceCount(text)
	if sentences == 0 {
		return readabilityFallback
	}

	tokens := textutil.Tokenize(text)
	words := len(tokens)
	if words == 0 {
		return readabilityFallback
	}
	syllables := 0
	for _, tok := range tokens {
		syllables += textutil.SyllableEstimate(tok)
	}

	return 0.39*(float64(words)/float64(sentences)) + 11.8*(float64(syllables)/float64(words)) - 15.59
}

// Fingerprint builds the fixed-length hashed term-frequency vector used for
// coarse similarity bucketing, normalized to unit L2 length. An all-zero
// vector (no tokens) stays zero.
func Fingerprint(text string) []float64 {
	v := make([]float64, model.FingerprintSize)
	for _, tok := range textutil.Tokenize(text) {
		v[textutil.Bucket(tok, model.FingerprintSize)]++
	}

	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
