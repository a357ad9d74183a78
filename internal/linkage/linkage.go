// Package linkage finds search results that describe the same record and
// folds them into one entity.
package linkage

import (
	"sort"

	"catalogsearch/internal/entity"
)

// Group clusters entities of the same kind that share an identifier,
// transitively. ISBN-13s are ignored. Members keep input order and groups are ordered by their first
// member; entities sharing nothing with others form singleton groups.
func Group(entities []*entity.Entity) [][]*entity.Entity {
	clusters := components(len(entities), func(i int) []string {
		return identifierKeys(entities[i])
	})
	out := make([][]*entity.Entity, len(clusters))
	for i, c := range clusters {
		out[i] = make([]*entity.Entity, len(c))
		for j, idx := range c {
			out[i][j] = entities[idx]
		}
	}
	return out
}

// Fold merges every group into its first member.
func Fold(groups [][]*entity.Entity) []*entity.Entity {
	out := make([]*entity.Entity, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		survivor := g[0]
		for _, e := range g[1:] {
			entity.Merge(survivor, e)
		}
		out = append(out, survivor)
	}
	return out
}

func identifierKeys(e *entity.Entity) []string {
	keys := make([]string, 0, len(e.Identifiers))
	for _, id := range e.Identifiers {
		if id.Links() {
			keys = append(keys, string(e.Kind)+"|"+id.Key())
		}
	}
	return keys
}

// components returns the connected components of n items where items sharing
// a key are adjacent.
func components(n int, keysOf func(int) []string) [][]int {
	byKey := make(map[string][]int)
	var order []string
	for i := 0; i < n; i++ {
		for _, k := range keysOf(i) {
			members, seen := byKey[k]
			if !seen {
				order = append(order, k)
			}
			if len(members) == 0 || members[len(members)-1] != i {
				byKey[k] = append(members, i)
			}
		}
	}

	var queue [][]int
	for _, k := range order {
		if len(byKey[k]) > 1 {
			queue = append(queue, byKey[k])
		}
	}

	var groups [][]int
	for len(queue) > 0 {
		cur := queue[0]
		merged := false
		var remaining [][]int
		for _, other := range queue[1:] {
			if intersects(cur, other) {
				cur = union(cur, other)
				merged = true
				continue
			}
			remaining = append(remaining, other)
		}
		if merged {
			// The union may now touch clusters it did not touch before.
			queue = append(remaining, cur)
			continue
		}
		groups = append(groups, cur)
		queue = remaining
	}

	claimed := make([]bool, n)
	for _, g := range groups {
		for _, i := range g {
			claimed[i] = true
		}
	}
	for i := 0; i < n; i++ {
		if !claimed[i] {
			groups = append(groups, []int{i})
		}
	}

	for _, g := range groups {
		sort.Ints(g)
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a][0] < groups[b][0] })
	return groups
}

func intersects(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func union(a, b []int) []int {
	out := append([]int(nil), a...)
	for _, y := range b {
		found := false
		for _, x := range out {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			out = append(out, y)
		}
	}
	return out
}
