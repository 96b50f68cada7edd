// Package quality resolves raw quality stat pairs into display-ready records.
package quality

import (
	"github.com/IshaanNene/gemquality/internal/translation"
	"github.com/IshaanNene/gemquality/internal/types"
)

// MaxQuality is the highest quality percentage a gem normally reaches.
const MaxQuality = 20

// Resolve turns a stat key and its per-quality value into a QualityData.
//
// Only the first translation entry listing key is consulted. Its variants are
// scanned in order and every eligible variant replaces the previous pick, so
// the last eligible variant wins. A variant is eligible when it is
// unconditional or when any of its conditions has a min at or below the value
// reached at MaxQuality. Resolve never fails; a missing translation leaves the
// display fields empty.
func Resolve(key string, value float64, idx *translation.Index) types.QualityData {
	q := types.QualityData{
		Key:             key,
		ValuePerQuality: value,
	}

	entries := idx.FindEntriesForKey(key)
	if len(entries) == 0 {
		return q
	}

	maxQualityValue := MaxQuality * value
	var picked *translation.Variant
	for i := range entries[0].Variants {
		v := &entries[0].Variants[i]
		if eligible(v, maxQualityValue) {
			picked = v
		}
	}
	if picked == nil || picked.String == "" {
		return q
	}

	q.Translation = picked.String
	q.IndexHandles = append([]string{}, picked.IndexHandlers...)
	return q
}

func eligible(v *translation.Variant, maxQualityValue float64) bool {
	if v.Unconditional() {
		return true
	}
	for _, c := range v.Conditions {
		if c.Min != nil && *c.Min <= maxQualityValue {
			return true
		}
	}
	return false
}
