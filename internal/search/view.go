package search

import (
	"time"

	"catalogsearch/internal/entity"
)

type IdentifierView struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type HoldingView struct {
	CatalogID    string `json:"catalog_id,omitempty"`
	CallNumber   string `json:"call_number,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	OnlineURL    string `json:"online_url,omitempty"`
	Loanable     bool   `json:"loanable"`
	Available    bool   `json:"available"`
}

// SummaryView is the short form of a related entity.
type SummaryView struct {
	ID          string           `json:"id,omitempty"`
	Slug        string           `json:"slug,omitempty"`
	Kind        string           `json:"kind"`
	Name        string           `json:"name"`
	ImageURL    string           `json:"image_url,omitempty"`
	Identifiers []IdentifierView `json:"identifiers,omitempty"`
}

type RelationView struct {
	Type      string      `json:"type"`
	Direction string      `json:"direction"`
	Entity    SummaryView `json:"entity"`
}

type EntityView struct {
	SummaryView
	Subtitle      string         `json:"subtitle,omitempty"`
	Year          int            `json:"year,omitempty"`
	Month         int            `json:"month,omitempty"`
	Day           int            `json:"day,omitempty"`
	Languages     []string       `json:"languages,omitempty"`
	LegalDeposits []string       `json:"legal_deposits,omitempty"`
	Pages         int            `json:"pages,omitempty"`
	Volumes       int            `json:"volumes,omitempty"`
	Description   string         `json:"description,omitempty"`
	BirthDate     string         `json:"birth_date,omitempty"`
	DeathDate     string         `json:"death_date,omitempty"`
	SignatureURL  string         `json:"signature_url,omitempty"`
	Holdings      []HoldingView  `json:"holdings,omitempty"`
	Relations     []RelationView `json:"relations,omitempty"`
	CreatedAt     *time.Time     `json:"created_at,omitempty"`
}

func summaryOf(e *entity.Entity) SummaryView {
	v := SummaryView{
		ID:       e.ID,
		Slug:     e.Slug,
		Kind:     string(e.Kind),
		Name:     e.DisplayName(),
		ImageURL: e.ImageURL,
	}
	for _, id := range e.Identifiers {
		v.Identifiers = append(v.Identifiers, IdentifierView{Type: string(id.Type), Value: id.Value})
	}
	return v
}

// ViewOf flattens e and its direct relations for rendering.
func ViewOf(e *entity.Entity) EntityView {
	v := EntityView{
		SummaryView:   summaryOf(e),
		Subtitle:      e.Subtitle,
		Year:          e.PubYear,
		Month:         e.PubMonth,
		Day:           e.PubDay,
		Languages:     e.Languages,
		LegalDeposits: e.LegalDeposits,
		Pages:         e.Pages,
		Volumes:       e.Volumes,
		Description:   e.Description,
		BirthDate:     formatDate(e.BirthDate),
		DeathDate:     formatDate(e.DeathDate),
		SignatureURL:  e.SignatureURL,
	}
	if !e.CreatedAt.IsZero() {
		t := e.CreatedAt
		v.CreatedAt = &t
	}
	for _, h := range e.Holdings {
		v.Holdings = append(v.Holdings, HoldingView{
			CatalogID:    h.CatalogID,
			CallNumber:   h.CallNumber,
			LocationName: h.LocationName,
			OnlineURL:    h.OnlineURL,
			Loanable:     h.Loanable,
			Available:    h.Available,
		})
	}
	for _, r := range e.Relations {
		dir := "outgoing"
		if r.To == e {
			dir = "incoming"
		}
		v.Relations = append(v.Relations, RelationView{
			Type:      string(r.Type),
			Direction: dir,
			Entity:    summaryOf(entity.Other(r, e)),
		})
	}
	return v
}

func ViewsOf(entities []*entity.Entity) []EntityView {
	out := make([]EntityView, 0, len(entities))
	for _, e := range entities {
		out = append(out, ViewOf(e))
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
