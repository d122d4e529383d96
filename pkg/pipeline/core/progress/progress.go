// Package progress computes the weighted completion percentage of a job.
package progress

import (
	"math"

	"github.com/tenderworks/pipeline/pkg/pipeline/core/catalog"
)

// Calculate maps a set of completed step identifiers to a 0-100 integer using
// the catalog's weight proportions. The result is order-independent and
// duplicate-tolerant; identifiers unknown to the catalog contribute nothing.
func Calculate(cat *catalog.Catalog, completedStepIDs []string) int {
	total := cat.TotalWeight()
	if total <= 0 {
		return 0
	}

	seen := make(map[string]bool, len(completedStepIDs))
	completed := 0.0
	for _, id := range completedStepIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if step, ok := cat.Lookup(id); ok {
			completed += step.ProgressWeight
		}
	}

	pct := int(math.Round(completed / total * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Calculator binds Calculate to a catalog so callers that only care about
// progress need not carry the catalog around.
type Calculator struct {
	cat *catalog.Catalog
}

// NewCalculator creates a Calculator for the given catalog.
func NewCalculator(cat *catalog.Catalog) *Calculator {
	return &Calculator{cat: cat}
}

// Calculate maps completed step identifiers to a 0-100 integer.
func (c *Calculator) Calculate(completedStepIDs []string) int {
	return Calculate(c.cat, completedStepIDs)
}
