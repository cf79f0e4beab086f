package internal

import "sort"

// Merge reconciles any number of replica snapshots into one corpus with
// exactly one winning entry per logical id, using last-write-wins on the
// normalized timestamp. It is pure: inputs are never mutated, and the
// result depends only on the set of entries, not on replica order.
//
// Ties on timestamp resolve by greater host, then greater unique id, so
// every scan order converges on the same winner.
func Merge(replicas []Replica) []Entry {
	winners := make(map[string]Entry)

	for _, replica := range replicas {
		for _, entry := range replica.Entries {
			id := entry.LogicalID()
			current, ok := winners[id]
			if !ok || wins(entry, current) {
				winners[id] = entry
			}
		}
	}

	merged := make([]Entry, 0, len(winners))
	for _, entry := range winners {
		merged = append(merged, entry)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].LogicalID() < merged[j].LogicalID()
	})

	return merged
}

// wins reports whether candidate supersedes current under LWW.
func wins(candidate, current Entry) bool {
	cts, pts := candidate.NormalizedTimestamp(), current.NormalizedTimestamp()
	if cts != pts {
		return cts > pts
	}
	if candidate.Meta.Host != current.Meta.Host {
		return candidate.Meta.Host > current.Meta.Host
	}
	return candidate.UniqueID() > current.UniqueID()
}
