package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nocturne-labs/dreamscape/pkg/helpers"
)

// Bank is the process-wide store of everything learned about the user.
// Category and weekday timeline indexes are derived views over entries,
// rebuilt incrementally on every write; an id present in an index always
// has a live entry behind it.
type Bank struct {
	logger *log.Logger

	mu         sync.RWMutex
	entries    map[string]*Entry
	byCategory map[Category][]string
	timeline   map[string][]string
}

func NewBank(logger *log.Logger) *Bank {
	return &Bank{
		logger:     logger,
		entries:    make(map[string]*Entry),
		byCategory: make(map[Category][]string),
		timeline:   make(map[string][]string),
	}
}

// StoreFact upserts an entry for the fact. Re-storing the same id
// overwrites; uniqueness is only enforced on id.
func (b *Bank) StoreFact(fact Fact, relatedIDs ...string) {
	if !ValidCategory(fact.Category) {
		b.logger.Warn("Dropping fact with unknown category", "category", fact.Category, "id", fact.ID)
		return
	}
	fact.Confidence = helpers.Clamp01(fact.Confidence)

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[fact.ID]; ok {
		b.removeFromIndexesLocked(existing.Fact)
	}

	b.entries[fact.ID] = &Entry{
		Fact:         fact,
		LastAccessed: time.Now(),
		AccessCount:  0,
		Confidence:   fact.Confidence,
		RelatedFacts: append([]string(nil), relatedIDs...),
	}
	b.byCategory[fact.Category] = append(b.byCategory[fact.Category], fact.ID)
	day := fact.Timestamp.Weekday().String()
	b.timeline[day] = append(b.timeline[day], fact.ID)
}

// FactsByCategory returns facts at or above the confidence threshold,
// most confident first. Reading through the category index counts as an
// access for retention purposes.
func (b *Bank) FactsByCategory(category Category, minConfidence float64) []Fact {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	var facts []Fact
	for _, id := range b.byCategory[category] {
		entry, ok := b.entries[id]
		if !ok {
			continue
		}
		if entry.Confidence < minConfidence {
			continue
		}
		entry.LastAccessed = now
		entry.AccessCount++
		facts = append(facts, entry.Fact)
	}
	sort.Slice(facts, func(i, j int) bool {
		return facts[i].Confidence > facts[j].Confidence
	})
	return facts
}

// RecentFacts returns everything learned in the last hoursBack hours,
// newest first.
func (b *Bank) RecentFacts(hoursBack int) []Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)
	var facts []Fact
	for _, entry := range b.entries {
		if entry.Fact.Timestamp.After(cutoff) {
			facts = append(facts, entry.Fact)
		}
	}
	sort.Slice(facts, func(i, j int) bool {
		return facts[i].Timestamp.After(facts[j].Timestamp)
	})
	return facts
}

// SearchFacts matches any keyword as a case-insensitive substring of fact
// content.
func (b *Bank) SearchFacts(keywords []string, minConfidence float64) []Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var facts []Fact
	for _, entry := range b.entries {
		if entry.Confidence < minConfidence {
			continue
		}
		content := strings.ToLower(entry.Fact.Content)
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(kw)) {
				facts = append(facts, entry.Fact)
				break
			}
		}
	}
	sort.Slice(facts, func(i, j int) bool {
		return facts[i].Confidence > facts[j].Confidence
	})
	return facts
}

// ContextualFacts ranks every stored fact against the current message and
// returns the top scorers. This ranking decides which facts feed the
// response prompt.
func (b *Bank) ContextualFacts(message string, categories []Category, limit int) []Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msgWords := contentWords(message)
	now := time.Now()

	type scored struct {
		fact  Fact
		score float64
	}
	var candidates []scored
	for _, entry := range b.entries {
		score := 0.0

		if len(categories) == 0 || containsCategory(categories, entry.Fact.Category) {
			score += 0.3
		}
		factWords := contentWords(entry.Fact.Content)
		for word := range msgWords {
			if factWords[word] {
				score += 0.2
			}
		}
		score += 0.3 * entry.Confidence
		if now.Sub(entry.Fact.Timestamp) < 24*time.Hour {
			score += 0.2
		}
		frequency := 0.1 * float64(entry.AccessCount)
		if frequency > 0.3 {
			frequency = 0.3
		}
		score += frequency

		if score > 0.5 {
			candidates = append(candidates, scored{fact: entry.Fact, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	facts := make([]Fact, 0, len(candidates))
	for _, c := range candidates {
		facts = append(facts, c.fact)
	}
	return facts
}

// UpdateFactConfidence clamps and overwrites; unknown ids are a no-op.
func (b *Bank) UpdateFactConfidence(factID string, newConfidence float64, verified bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[factID]
	if !ok {
		return
	}
	entry.Confidence = helpers.Clamp01(newConfidence)
	entry.Fact.Confidence = entry.Confidence
	if verified {
		entry.Fact.Verified = true
	}
}

// ResolveConflict applies the chosen resolution. All three choices are
// additive: nothing is deleted, superseded facts keep living at reduced
// confidence so the history stays inspectable.
func (b *Bank) ResolveConflict(newFact Fact, existingFactID string, choice ResolutionChoice) {
	switch choice {
	case ResolutionKeepNew:
		b.UpdateFactConfidence(existingFactID, 0.3, false)
		b.StoreFact(newFact, existingFactID)

	case ResolutionKeepExisting:
		b.mu.Lock()
		if entry, ok := b.entries[existingFactID]; ok {
			entry.Confidence = helpers.Clamp01(entry.Confidence + 0.2)
			entry.Fact.Confidence = entry.Confidence
			entry.Fact.Verified = true
		}
		b.mu.Unlock()
		newFact.Confidence = 0.2
		b.StoreFact(newFact, existingFactID)

	case ResolutionMerge:
		existingContent := ""
		b.mu.RLock()
		existingEntry, ok := b.entries[existingFactID]
		if ok {
			existingContent = existingEntry.Fact.Content
		}
		existingConfidence := 0.0
		if ok {
			existingConfidence = existingEntry.Confidence
		}
		b.mu.RUnlock()
		if !ok {
			b.StoreFact(newFact)
			return
		}
		merged := Fact{
			ID:         "merged-" + uuid.New().String(),
			Content:    existingContent + "; " + newFact.Content,
			Category:   newFact.Category,
			Confidence: (existingConfidence + newFact.Confidence) / 2,
			Timestamp:  time.Now(),
			Source:     newFact.Source,
		}
		b.StoreFact(merged, existingFactID, newFact.ID)

	default:
		b.logger.Warn("Unknown conflict resolution choice", "choice", choice)
	}
}

// KnowledgeByCategory returns a point-in-time copy of all live facts,
// grouped by category. Conflict detection reads this copy, never the Bank
// itself.
func (b *Bank) KnowledgeByCategory() map[Category][]Fact {
	b.mu.RLock()
	defer b.mu.RUnlock()

	knowledge := make(map[Category][]Fact, len(b.byCategory))
	for category, ids := range b.byCategory {
		for _, id := range ids {
			if entry, ok := b.entries[id]; ok {
				fact := entry.Fact
				fact.Confidence = entry.Confidence
				knowledge[category] = append(knowledge[category], fact)
			}
		}
	}
	return knowledge
}

// Fact returns the stored fact for an id.
func (b *Bank) Fact(id string) (Fact, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[id]
	if !ok {
		return Fact{}, false
	}
	fact := entry.Fact
	fact.Confidence = entry.Confidence
	return fact, true
}

// MemoryStats aggregates counts over everything stored.
func (b *Bank) MemoryStats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := Stats{
		FactsByCategory: make(map[Category]int),
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	totalConfidence := 0.0
	for _, entry := range b.entries {
		stats.TotalFacts++
		stats.FactsByCategory[entry.Fact.Category]++
		totalConfidence += entry.Confidence
		if entry.Fact.Verified {
			stats.VerifiedFacts++
		}
		if entry.Fact.Timestamp.After(cutoff) {
			stats.RecentlyLearned++
		}
	}
	if stats.TotalFacts > 0 {
		stats.AverageConfidence = totalConfidence / float64(stats.TotalFacts)
	}
	return stats
}

// Cleanup deletes facts that are simultaneously below the confidence
// floor, older than maxAgeDays and never accessed. Returns the number of
// facts removed.
func (b *Bank) Cleanup(minConfidence float64, maxAgeDays int) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	var toDelete []string
	for id, entry := range b.entries {
		if entry.Confidence < minConfidence && entry.Fact.Timestamp.Before(cutoff) && entry.AccessCount == 0 {
			toDelete = append(toDelete, id)
		}
	}
	for _, id := range toDelete {
		entry := b.entries[id]
		b.removeFromIndexesLocked(entry.Fact)
		delete(b.entries, id)
	}
	if len(toDelete) > 0 {
		b.logger.Info("Memory cleanup removed stale facts", "count", len(toDelete))
	}
	return len(toDelete)
}

func (b *Bank) removeFromIndexesLocked(fact Fact) {
	b.byCategory[fact.Category] = removeID(b.byCategory[fact.Category], fact.ID)
	if len(b.byCategory[fact.Category]) == 0 {
		delete(b.byCategory, fact.Category)
	}
	day := fact.Timestamp.Weekday().String()
	b.timeline[day] = removeID(b.timeline[day], fact.ID)
	if len(b.timeline[day]) == 0 {
		delete(b.timeline, day)
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

func containsCategory(categories []Category, category Category) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

// contentWords tokenizes on whitespace and keeps lowercase words longer
// than 3 characters.
func contentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:'\"")
		if len(word) > 3 {
			words[word] = true
		}
	}
	return words
}
