// Package taxonomy holds the lexical tables that drive question
// classification: cue verbs mapped to Bloom cognitive levels, verbs and
// indicator phrases mapped to knowledge dimensions, and difficulty keyword
// lists.
//
// The tables are ordered slices, not maps. Scanning is first-match-wins, so
// slice order is the tie-breaking policy and must not be reordered without
// accepting that classifications will change.
package taxonomy

import (
	"strings"

	"github.com/pavelanni/qbank/internal/model"
)

// VerbLevel maps a cue verb to a Bloom cognitive level.
type VerbLevel struct {
	Verb  string
	Level model.CognitiveLevel
}

// VerbDimension maps a cue verb to a knowledge dimension.
type VerbDimension struct {
	Verb      string
	Dimension model.KnowledgeDimension
}

// Indicator maps a phrase to a knowledge dimension. Indicators are matched
// by plain substring search, unlike verbs which need a whole-word hit.
type Indicator struct {
	Phrase    string
	Dimension model.KnowledgeDimension
}

// VerbLevels is the cognitive cue-verb table in priority order.
var VerbLevels = []VerbLevel{
	{"define", model.LevelRemembering},
	{"list", model.LevelRemembering},
	{"recall", model.LevelRemembering},
	{"name", model.LevelRemembering},
	{"state", model.LevelRemembering},
	{"identify", model.LevelRemembering},
	{"label", model.LevelRemembering},
	{"match", model.LevelRemembering},
	{"recognize", model.LevelRemembering},
	{"explain", model.LevelUnderstanding},
	{"describe", model.LevelUnderstanding},
	{"summarize", model.LevelUnderstanding},
	{"paraphrase", model.LevelUnderstanding},
	{"interpret", model.LevelUnderstanding},
	{"discuss", model.LevelUnderstanding},
	{"illustrate", model.LevelUnderstanding},
	{"classify", model.LevelUnderstanding},
	{"apply", model.LevelApplying},
	{"solve", model.LevelApplying},
	{"use", model.LevelApplying},
	{"demonstrate", model.LevelApplying},
	{"calculate", model.LevelApplying},
	{"compute", model.LevelApplying},
	{"implement", model.LevelApplying},
	{"execute", model.LevelApplying},
	{"analyze", model.LevelAnalyzing},
	{"compare", model.LevelAnalyzing},
	{"contrast", model.LevelAnalyzing},
	{"differentiate", model.LevelAnalyzing},
	{"distinguish", model.LevelAnalyzing},
	{"examine", model.LevelAnalyzing},
	{"categorize", model.LevelAnalyzing},
	{"evaluate", model.LevelEvaluating},
	{"justify", model.LevelEvaluating},
	{"critique", model.LevelEvaluating},
	{"judge", model.LevelEvaluating},
	{"assess", model.LevelEvaluating},
	{"defend", model.LevelEvaluating},
	{"argue", model.LevelEvaluating},
	{"recommend", model.LevelEvaluating},
	{"create", model.LevelCreating},
	{"design", model.LevelCreating},
	{"develop", model.LevelCreating},
	{"construct", model.LevelCreating},
	{"formulate", model.LevelCreating},
	{"compose", model.LevelCreating},
	{"propose", model.LevelCreating},
	{"devise", model.LevelCreating},
}

// VerbDimensions is the knowledge-dimension cue-verb table in priority order.
var VerbDimensions = []VerbDimension{
	{"define", model.DimensionFactual},
	{"list", model.DimensionFactual},
	{"name", model.DimensionFactual},
	{"state", model.DimensionFactual},
	{"recall", model.DimensionFactual},
	{"label", model.DimensionFactual},
	{"identify", model.DimensionFactual},
	{"explain", model.DimensionConceptual},
	{"describe", model.DimensionConceptual},
	{"compare", model.DimensionConceptual},
	{"contrast", model.DimensionConceptual},
	{"classify", model.DimensionConceptual},
	{"interpret", model.DimensionConceptual},
	{"summarize", model.DimensionConceptual},
	{"apply", model.DimensionProcedural},
	{"solve", model.DimensionProcedural},
	{"calculate", model.DimensionProcedural},
	{"compute", model.DimensionProcedural},
	{"demonstrate", model.DimensionProcedural},
	{"implement", model.DimensionProcedural},
	{"execute", model.DimensionProcedural},
	{"construct", model.DimensionProcedural},
	{"reflect", model.DimensionMetacognitive},
	{"monitor", model.DimensionMetacognitive},
	{"plan", model.DimensionMetacognitive},
}

// Indicators is the dimension indicator-phrase table, used only when no cue
// verb matched at all.
var Indicators = []Indicator{
	{"what is", model.DimensionFactual},
	{"what are", model.DimensionFactual},
	{"who", model.DimensionFactual},
	{"when did", model.DimensionFactual},
	{"where", model.DimensionFactual},
	{"how to", model.DimensionProcedural},
	{"steps to", model.DimensionProcedural},
	{"procedure", model.DimensionProcedural},
	{"method for", model.DimensionProcedural},
	{"why", model.DimensionConceptual},
	{"relationship between", model.DimensionConceptual},
	{"difference between", model.DimensionConceptual},
	{"your own learning", model.DimensionMetacognitive},
	{"your thinking", model.DimensionMetacognitive},
	{"strategy you", model.DimensionMetacognitive},
}

// EasyKeywords and DifficultKeywords override the structural difficulty
// heuristic when present in the text.
var (
	EasyKeywords      = []string{"basic", "simple", "easy", "fundamental", "elementary"}
	DifficultKeywords = []string{"complex", "advanced", "difficult", "comprehensive", "in depth", "rigorous"}
)

// ContainsCue reports whether verb appears in normalized text as a whole
// word: at the start of the text, surrounded by spaces, or immediately
// followed by a colon.
func ContainsCue(text, verb string) bool {
	if text == verb || strings.HasPrefix(text, verb+" ") || strings.HasPrefix(text, verb+":") {
		return true
	}
	return strings.Contains(text, " "+verb+" ") || strings.Contains(text, " "+verb+":")
}

// FindCognitiveVerb scans the cue-verb table in order and returns the first
// verb found in the normalized text, with its level.
func FindCognitiveVerb(text string) (string, model.CognitiveLevel, bool) {
	for _, vl := range VerbLevels {
		if ContainsCue(text, vl.Verb) {
			return vl.Verb, vl.Level, true
		}
	}
	return "", "", false
}

// FindDimensionVerb scans the dimension cue-verb table in order and returns
// the first verb found in the normalized text, with its dimension.
func FindDimensionVerb(text string) (string, model.KnowledgeDimension, bool) {
	for _, vd := range VerbDimensions {
		if ContainsCue(text, vd.Verb) {
			return vd.Verb, vd.Dimension, true
		}
	}
	return "", "", false
}

// FindIndicator scans the indicator-phrase table in order and returns the
// dimension of the first phrase contained in the normalized text.
func FindIndicator(text string) (model.KnowledgeDimension, bool) {
	for _, ind := range Indicators {
		if strings.Contains(text, ind.Phrase) {
			return ind.Dimension, true
		}
	}
	return "", false
}

// HasEasyKeyword reports whether the text contains an explicit easy marker.
func HasEasyKeyword(text string) bool {
	return containsAny(text, EasyKeywords)
}

// HasDifficultKeyword reports whether the text contains an explicit
// difficult marker.
func HasDifficultKeyword(text string) bool {
	return containsAny(text, DifficultKeywords)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
