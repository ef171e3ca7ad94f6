package conflict

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nocturne-labs/dreamscape/pkg/memory"
)

type Type string

const (
	TypeContradiction Type = "contradiction"
	TypeInconsistency Type = "inconsistency"
	TypeAmbiguity     Type = "ambiguity"
	TypeTemporal      Type = "temporal"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Resolution string

const (
	ResolutionUpdate  Resolution = "update"
	ResolutionIgnore  Resolution = "ignore"
	ResolutionClarify Resolution = "clarify"
	ResolutionMerge   Resolution = "merge"
)

// Info describes one detected tension between a newly extracted fact and a
// previously stored one. Ephemeral: produced per request, never persisted.
type Info struct {
	ConflictID            string
	NewFact               memory.Fact
	ExistingFact          memory.Fact
	Type                  Type
	Severity              Severity
	ClarificationQuestion string
	SuggestedResolution   Resolution
}

// Report is the outcome of one detection pass over a batch of new facts.
type Report struct {
	Conflicts               []Info
	HasConflicts            bool
	NeedsImmediateAttention []Info
	AutoResolvable          []Info
}

// Resolver runs rule-based conflict checks. Clarification questions are
// templated per detector, which keeps them deterministic and testable even
// though the final reply text is not.
type Resolver struct {
	logger *log.Logger
}

func NewResolver(logger *log.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// DetectConflicts compares each new fact against every existing fact in
// the same category. Existing knowledge is a read-only point-in-time copy,
// so detection never mutates stored state. Four detectors run in fixed
// order per pair; the first match wins, so a pair is reported at most once.
func (r *Resolver) DetectConflicts(newFacts []memory.Fact, existing map[memory.Category][]memory.Fact) Report {
	var report Report

	for _, newFact := range newFacts {
		for _, existingFact := range existing[newFact.Category] {
			if existingFact.ID == newFact.ID {
				continue
			}
			info, found := r.comparePair(newFact, existingFact)
			if !found {
				continue
			}
			report.Conflicts = append(report.Conflicts, info)
		}
	}

	report.HasConflicts = len(report.Conflicts) > 0
	for _, c := range report.Conflicts {
		if c.Severity == SeverityHigh || c.Type == TypeContradiction {
			report.NeedsImmediateAttention = append(report.NeedsImmediateAttention, c)
		}
		if (c.SuggestedResolution == ResolutionUpdate || c.SuggestedResolution == ResolutionMerge) && c.Severity != SeverityHigh {
			report.AutoResolvable = append(report.AutoResolvable, c)
		}
	}
	if report.HasConflicts {
		r.logger.Info("Conflicts detected", "count", len(report.Conflicts), "urgent", len(report.NeedsImmediateAttention))
	}
	return report
}

func (r *Resolver) comparePair(newFact, existingFact memory.Fact) (Info, bool) {
	if info, ok := r.detectContradiction(newFact, existingFact); ok {
		return info, true
	}
	if info, ok := r.detectTemporalClash(newFact, existingFact); ok {
		return info, true
	}
	if info, ok := r.detectInconsistency(newFact, existingFact); ok {
		return info, true
	}
	if info, ok := r.detectAmbiguity(newFact, existingFact); ok {
		return info, true
	}
	return Info{}, false
}

var (
	positiveEmotionWords = []string{"happy", "love", "loving", "excited", "great", "wonderful", "joyful", "glad"}
	negativeEmotionWords = []string{"sad", "hate", "angry", "upset", "depressed", "miserable", "awful", "unhappy"}

	partnerReferencePattern = regexp.MustCompile(`(?i)\b(boyfriend|girlfriend|partner|husband|wife|dating|seeing someone)\b`)

	likeWords    = []string{"love", "like", "enjoy", "adore", "favorite", "prefer"}
	dislikeWords = []string{"hate", "dislike", "despise", "can't stand", "cannot stand", "avoid"}
)

func (r *Resolver) detectContradiction(newFact, existingFact memory.Fact) (Info, bool) {
	newContent := strings.ToLower(newFact.Content)
	existingContent := strings.ToLower(existingFact.Content)

	switch newFact.Category {
	case memory.CategoryEmotions:
		if oppositePolarity(newContent, existingContent, positiveEmotionWords, negativeEmotionWords) {
			return r.newInfo(newFact, existingFact, TypeContradiction, SeverityHigh, ResolutionClarify), true
		}

	case memory.CategoryRelationship:
		newSingle := strings.Contains(newContent, "single")
		existingSingle := strings.Contains(existingContent, "single")
		newPartner := partnerReferencePattern.MatchString(newContent)
		existingPartner := partnerReferencePattern.MatchString(existingContent)
		if (newSingle && existingPartner) || (existingSingle && newPartner) {
			return r.newInfo(newFact, existingFact, TypeContradiction, SeverityHigh, ResolutionClarify), true
		}

	case memory.CategoryPreferences:
		if !shareContentWord(newContent, existingContent) {
			return Info{}, false
		}
		if oppositePolarity(newContent, existingContent, likeWords, dislikeWords) {
			return r.newInfo(newFact, existingFact, TypeContradiction, SeverityMedium, ResolutionUpdate), true
		}
	}

	return Info{}, false
}

var timeReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(?i)\b(today|tomorrow|tonight)\b`),
	regexp.MustCompile(`(?i)\b(next week|this weekend|next weekend)\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}(st|nd|rd|th)\b`),
}

func (r *Resolver) detectTemporalClash(newFact, existingFact memory.Fact) (Info, bool) {
	if newFact.Category != memory.CategoryPlans {
		return Info{}, false
	}
	newContent := strings.ToLower(newFact.Content)
	existingContent := strings.ToLower(existingFact.Content)
	if !strings.Contains(newContent, "date") || !strings.Contains(existingContent, "date") {
		return Info{}, false
	}

	newRefs := extractTimeReferences(newContent)
	existingRefs := extractTimeReferences(existingContent)
	if len(newRefs) == 0 || len(existingRefs) == 0 {
		return Info{}, false
	}
	if sameTimeReferences(newRefs, existingRefs) {
		return Info{}, false
	}
	return r.newInfo(newFact, existingFact, TypeTemporal, SeverityMedium, ResolutionClarify), true
}

func (r *Resolver) detectInconsistency(newFact, existingFact memory.Fact) (Info, bool) {
	if newFact.Confidence >= 0.6 || existingFact.Confidence <= 0.8 {
		return Info{}, false
	}
	similarity := jaccardSimilarity(newFact.Content, existingFact.Content)
	if similarity <= 0.3 || similarity >= 0.8 {
		return Info{}, false
	}
	return r.newInfo(newFact, existingFact, TypeInconsistency, SeverityLow, ResolutionMerge), true
}

func (r *Resolver) detectAmbiguity(newFact, existingFact memory.Fact) (Info, bool) {
	if newFact.Verified {
		return Info{}, false
	}
	similarity := jaccardSimilarity(newFact.Content, existingFact.Content)
	if similarity <= 0.5 || similarity >= 0.9 {
		return Info{}, false
	}
	return r.newInfo(newFact, existingFact, TypeAmbiguity, SeverityLow, ResolutionClarify), true
}

func (r *Resolver) newInfo(newFact, existingFact memory.Fact, conflictType Type, severity Severity, resolution Resolution) Info {
	return Info{
		ConflictID:            "conflict-" + uuid.New().String(),
		NewFact:               newFact,
		ExistingFact:          existingFact,
		Type:                  conflictType,
		Severity:              severity,
		ClarificationQuestion: clarificationQuestion(conflictType, newFact, existingFact),
		SuggestedResolution:   resolution,
	}
}

func clarificationQuestion(conflictType Type, newFact, existingFact memory.Fact) string {
	switch conflictType {
	case TypeContradiction:
		return fmt.Sprintf("Earlier I understood %q, but now you mentioned %q — which one should I go with?", existingFact.Content, newFact.Content)
	case TypeTemporal:
		return fmt.Sprintf("I have your plans down as %q, but you just said %q — did the timing change?", existingFact.Content, newFact.Content)
	case TypeInconsistency:
		return fmt.Sprintf("Just to be sure I have it right: is %q still accurate, or is %q closer now?", existingFact.Content, newFact.Content)
	default:
		return fmt.Sprintf("When you said %q, did you mean the same thing as %q?", newFact.Content, existingFact.Content)
	}
}

func oppositePolarity(a, b string, positive, negative []string) bool {
	return (containsAny(a, positive) && containsAny(b, negative)) ||
		(containsAny(a, negative) && containsAny(b, positive))
}

func containsAny(content string, words []string) bool {
	for _, word := range words {
		if strings.Contains(content, word) {
			return true
		}
	}
	return false
}

// shareContentWord gates preference checks on the two facts actually
// talking about the same thing.
func shareContentWord(a, b string) bool {
	aWords := tokenize(a)
	bWords := tokenize(b)
	for word := range aWords {
		if len(word) > 3 && bWords[word] {
			return true
		}
	}
	return false
}

func extractTimeReferences(content string) []string {
	var refs []string
	for _, pattern := range timeReferencePatterns {
		refs = append(refs, pattern.FindAllString(content, -1)...)
	}
	for i, ref := range refs {
		refs[i] = strings.ToLower(ref)
	}
	return refs
}

func sameTimeReferences(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, ref := range a {
		set[ref] = true
	}
	for _, ref := range b {
		if !set[ref] {
			return false
		}
	}
	return len(a) == len(b)
}

// jaccardSimilarity over whitespace-tokenized lowercase words.
func jaccardSimilarity(a, b string) float64 {
	aWords := tokenize(a)
	bWords := tokenize(b)
	if len(aWords) == 0 && len(bWords) == 0 {
		return 0
	}
	intersection := 0
	for word := range aWords {
		if bWords[word] {
			intersection++
		}
	}
	union := len(aWords) + len(bWords) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenize(content string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(content)) {
		word = strings.Trim(word, ".,!?;:'\"")
		if word != "" {
			words[word] = true
		}
	}
	return words
}
