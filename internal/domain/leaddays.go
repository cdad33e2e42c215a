package domain

import (
	"fmt"
	"math"
	"sort"
)

// NormalizeLeadDays turns the raw lead-day values from persisted settings
// into the set actually scheduled: deduplicated, sorted ascending, all
// values >= 0, and always containing 0 so the on-the-day reminder cannot
// be configured away. Negative, NaN, and infinite inputs are discarded.
func NormalizeLeadDays(raw []float64) []int {
	seen := map[int]bool{0: true}
	out := []int{0}

	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		d := int(v)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}

	sort.Ints(out)
	return out
}

// RenewalPhrase maps a lead-day count to the wording used in reminder
// subjects and bodies.
func RenewalPhrase(lead int) string {
	switch lead {
	case 0:
		return "renews TODAY"
	case 1:
		return "renews TOMORROW"
	default:
		return fmt.Sprintf("renews in %d days", lead)
	}
}
