package analytics

import (
	"sort"
	"strings"

	"github.com/applause/dashboard/internal/store"
)

// DefaultSampleTail is the number of entries taken from each end of the distribution.
const DefaultSampleTail = 5

// SampleDistribution picks the tail lowest and tail highest cumulative
// returns, adds the highlighted coin when it is not already part of the
// sample, and returns the result sorted ascending with one entry per coin.
// The input slice is not modified.
func SampleDistribution(entries []store.DistributionEntry, tail int, highlight string) []store.DistributionEntry {
	if tail < 1 {
		tail = DefaultSampleTail
	}

	sorted := make([]store.DistributionEntry, len(entries))
	copy(sorted, entries)
	sortByReturn(sorted)

	n := len(sorted)
	low := sorted[:min(tail, n)]
	high := sorted[max(0, n-tail):]

	sample := make([]store.DistributionEntry, 0, len(low)+len(high)+1)
	sample = append(sample, low...)
	sample = append(sample, high...)
	sample = dedupeByCoin(sample)

	if highlight != "" && !containsCoin(sample, highlight) {
		for _, e := range sorted {
			if strings.EqualFold(e.Coin, highlight) {
				sample = append(sample, e)
				break
			}
		}
		sortByReturn(sample)
		sample = dedupeByCoin(sample)
	}

	return sample
}

func sortByReturn(entries []store.DistributionEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CumReturn < entries[j].CumReturn
	})
}

// dedupeByCoin keeps the first occurrence of each coin.
func dedupeByCoin(entries []store.DistributionEntry) []store.DistributionEntry {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		key := strings.ToUpper(e.Coin)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

func containsCoin(entries []store.DistributionEntry, coin string) bool {
	for _, e := range entries {
		if strings.EqualFold(e.Coin, coin) {
			return true
		}
	}
	return false
}
