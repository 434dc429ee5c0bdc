package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicatePreservesFirstOccurrenceOrder(t *testing.T) {
	d := NewDeduplicator(0.85)
	plan := []string{"AI chips", "AI chips 2024", "AI chip market 2024", "quantum computing"}

	unique, duplicates := d.Deduplicate(plan)

	assert.Equal(t, len(plan), len(unique)+len(duplicates))
	assert.Contains(t, unique, "AI chips")
	assert.Contains(t, unique, "quantum computing")
}

func TestDeduplicateSoundness(t *testing.T) {
	// Every input query lands in exactly one of unique or duplicates.
	d := NewDeduplicator(0.85)
	plan := []string{"a", "a", "b", "a b c", "completely unrelated topic here"}

	unique, duplicates := d.Deduplicate(plan)
	assert.Equal(t, len(plan), len(unique)+len(duplicates))

	for i := range unique {
		for j := range unique {
			if i == j {
				continue
			}
			assert.Less(t, similarity(normalizeQuery(unique[i]), normalizeQuery(unique[j])), 0.85)
		}
	}
}
