package effectivediff

import "sort"

type fileKey struct {
	source string
	target string
}

// GroupMatches chains matches into blocks. Same-hunk matches (distance 0) are
// dropped. The rest are grouped per (source file, target file) pair in order
// of first appearance, sorted by removed line, paired one to one and chained
// while the number of unmatched removed lines between neighbours is at most
// gapTolerance.
func GroupMatches(matches []LineMatch, gapTolerance int) [][]LineMatch {
	var keys []fileKey
	groups := make(map[fileKey][]LineMatch)
	for _, m := range matches {
		if m.Distance == 0 {
			continue
		}
		k := fileKey{source: m.Removed.FilePath, target: m.Added.FilePath}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], m)
	}

	var blocks [][]LineMatch
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Removed.LineNumber != group[j].Removed.LineNumber {
				return group[i].Removed.LineNumber < group[j].Removed.LineNumber
			}
			return group[i].Added.LineNumber < group[j].Added.LineNumber
		})
		group = pairOneToOne(group)

		current := []LineMatch{group[0]}
		for _, m := range group[1:] {
			gap := m.Removed.LineNumber - current[len(current)-1].Removed.LineNumber - 1
			if gap <= gapTolerance {
				current = append(current, m)
				continue
			}
			blocks = append(blocks, current)
			current = []LineMatch{m}
		}
		blocks = append(blocks, current)
	}
	return blocks
}

// pairOneToOne keeps one match per removed line and uses each added line at
// most once. A removed line with several identical added lines takes the one
// closest to where the previous pair predicts it, or the first free one when
// there is no previous pair. group must be sorted by removed then added line.
func pairOneToOne(group []LineMatch) []LineMatch {
	out := make([]LineMatch, 0, len(group))
	used := make(map[int]bool)
	for i := 0; i < len(group); {
		j := i
		for j < len(group) && group[j].Removed.LineNumber == group[i].Removed.LineNumber {
			j++
		}
		best, bestCost := -1, 0
		for k := i; k < j; k++ {
			added := group[k].Added.LineNumber
			if used[added] {
				continue
			}
			cost := 0
			if len(out) > 0 {
				prev := out[len(out)-1]
				want := prev.Added.LineNumber + group[k].Removed.LineNumber - prev.Removed.LineNumber
				cost = abs(added - want)
			}
			if best < 0 || cost < bestCost {
				best, bestCost = k, cost
			}
		}
		if best >= 0 {
			used[group[best].Added.LineNumber] = true
			out = append(out, group[best])
		}
		i = j
	}
	return out
}
