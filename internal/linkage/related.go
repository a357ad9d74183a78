package linkage

import "catalogsearch/internal/entity"

// Related returns every entity reachable through relations from the given
// ones, excluding the given ones, in discovery order.
func Related(entities []*entity.Entity) []*entity.Entity {
	seen := make(map[*entity.Entity]bool, len(entities))
	for _, e := range entities {
		seen[e] = true
	}

	var out []*entity.Entity
	queue := append([]*entity.Entity(nil), entities...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range cur.Relations {
			other := entity.Other(r, cur)
			if other == nil || seen[other] {
				continue
			}
			seen[other] = true
			out = append(out, other)
			queue = append(queue, other)
		}
	}
	return out
}

// MergeRelated deduplicates the related entities of a result set. Persons and
// organizations match by name or identifier, works by identifier only. The
// first entity of each cluster absorbs the rest and relations pointing at a
// discarded entity are re-pointed to it. It returns the number of entities
// merged away.
func MergeRelated(entities []*entity.Entity) int {
	related := Related(entities)
	clusters := components(len(related), func(i int) []string {
		e := related[i]
		keys := identifierKeys(e)
		if e.Kind != entity.Work && e.DisplayName() != "" {
			keys = append(keys, entity.NameTag(e))
		}
		return keys
	})

	merged := 0
	for _, c := range clusters {
		survivor := related[c[0]]
		for _, idx := range c[1:] {
			entity.Merge(survivor, related[idx])
			merged++
		}
	}
	return merged
}
