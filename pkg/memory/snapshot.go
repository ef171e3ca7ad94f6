package memory

import (
	"time"

	"github.com/google/uuid"
)

// Export flattens the bank into the snapshot shape used for persistence
// and conflict comparison. The snapshot keeps only (category, id, content);
// confidence, verification and timestamps are dropped on purpose.
func (b *Bank) Export() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snapshot := make(Snapshot)
	for category, ids := range b.byCategory {
		for _, id := range ids {
			entry, ok := b.entries[id]
			if !ok {
				continue
			}
			if snapshot[category] == nil {
				snapshot[category] = make(map[string]string)
			}
			snapshot[category][id] = entry.Fact.Content
		}
	}
	return snapshot
}

// Import loads a snapshot back into the bank. Since the snapshot format is
// lossy, imported facts get a fixed confidence of 0.8 and are marked
// verified regardless of origin.
func (b *Bank) Import(snapshot Snapshot) {
	now := time.Now()
	for category, facts := range snapshot {
		if !ValidCategory(category) {
			b.logger.Warn("Skipping snapshot category", "category", category)
			continue
		}
		for id, content := range facts {
			if id == "" {
				id = "imported-" + uuid.New().String()
			}
			b.StoreFact(Fact{
				ID:         id,
				Content:    content,
				Category:   category,
				Confidence: 0.8,
				Timestamp:  now,
				Source:     "knowledge snapshot",
				Verified:   true,
			})
		}
	}
}
