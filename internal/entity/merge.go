package entity

// Merge folds src into dst. Non-empty scalars of src overwrite those of dst,
// lists are appended without duplicates, identifiers are united and every
// relation of src is re-pointed to dst. src is left without relations.
func Merge(dst, src *Entity) {
	if dst == src || src == nil {
		return
	}

	if dst.ID == "" {
		dst.ID = src.ID
		dst.CreatedAt = src.CreatedAt
	}
	mergeString(&dst.Slug, src.Slug)
	mergeString(&dst.ImageURL, src.ImageURL)

	mergeString(&dst.Title, src.Title)
	mergeString(&dst.Subtitle, src.Subtitle)
	mergeInt(&dst.PubYear, src.PubYear)
	mergeInt(&dst.PubMonth, src.PubMonth)
	mergeInt(&dst.PubDay, src.PubDay)
	mergeInt(&dst.Pages, src.Pages)
	mergeInt(&dst.Volumes, src.Volumes)
	for _, l := range src.Languages {
		dst.AddLanguage(l)
	}
	for _, d := range src.LegalDeposits {
		dst.AddLegalDeposit(d)
	}
	for _, h := range src.Holdings {
		dst.AddHolding(h)
	}

	mergeString(&dst.Name, src.Name)
	mergeString(&dst.Description, src.Description)
	mergeString(&dst.SignatureURL, src.SignatureURL)
	mergeString(&dst.Website, src.Website)
	if !src.BirthDate.IsZero() {
		dst.BirthDate = src.BirthDate
	}
	if !src.DeathDate.IsZero() {
		dst.DeathDate = src.DeathDate
	}
	if !src.FoundedOn.IsZero() {
		dst.FoundedOn = src.FoundedOn
	}

	for _, id := range src.Identifiers {
		dst.AddIdentifier(id.Type, id.Value)
	}

	for _, r := range src.Relations {
		r.Repoint(src, dst)
		if dst.findRelation(r) != nil {
			if other := Other(r, dst); other != dst {
				other.removeRelation(r)
			}
			continue
		}
		dst.Relations = append(dst.Relations, r)
	}
	src.Relations = nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
