// Package entity holds the bibliographic model shared by providers, linkage
// and the cache: works, persons, organizations and the relations between them.
package entity

import "time"

type Kind string

const (
	Work         Kind = "work"
	Person       Kind = "person"
	Organization Kind = "organization"
	Thing        Kind = "thing"
)

// Entity is a search result or one of its related records. Kind selects which
// of the optional fields are meaningful.
type Entity struct {
	// ID and CreatedAt are the persistence identity, set by the cache resolver.
	ID        string
	CreatedAt time.Time
	Slug      string

	Kind        Kind
	Identifiers []Identifier
	ImageURL    string
	Relations   []*Relation

	// Work
	Title         string
	Subtitle      string
	PubYear       int
	PubMonth      int
	PubDay        int
	Languages     []string
	LegalDeposits []string
	Pages         int
	Volumes       int
	Holdings      []Holding

	// Person and Organization
	Name         string
	Description  string
	BirthDate    time.Time
	DeathDate    time.Time
	SignatureURL string
	Website      string
	FoundedOn    time.Time
}

func NewWork(title string) *Entity {
	return &Entity{Kind: Work, Title: NormalizeTitle(title)}
}

func NewPerson(name string) *Entity {
	return &Entity{Kind: Person, Name: NormalizeName(name)}
}

func NewOrganization(name string) *Entity {
	return &Entity{Kind: Organization, Name: NormalizeTitle(name)}
}

// DisplayName is the title of a work or the name of anything else.
func (e *Entity) DisplayName() string {
	if e.Kind == Work {
		return e.Title
	}
	return e.Name
}

// AddIdentifier adds the identifier unless an equal one is present. Empty
// values are ignored.
func (e *Entity) AddIdentifier(t IdentifierType, value string) bool {
	if value == "" {
		return false
	}
	id := Identifier{Type: t, Value: value}
	for _, existing := range e.Identifiers {
		if existing == id {
			return false
		}
	}
	e.Identifiers = append(e.Identifiers, id)
	return true
}

// Identifier returns the first identifier value of type t.
func (e *Entity) Identifier(t IdentifierType) (string, bool) {
	for _, id := range e.Identifiers {
		if id.Type == t {
			return id.Value, true
		}
	}
	return "", false
}

func (e *Entity) HasIdentifier(t IdentifierType) bool {
	_, ok := e.Identifier(t)
	return ok
}

// AddHolding appends h unless an identical holding is present.
func (e *Entity) AddHolding(h Holding) {
	for _, existing := range e.Holdings {
		if existing == h {
			return
		}
	}
	e.Holdings = append(e.Holdings, h)
}

func (e *Entity) AddLanguage(lang string) {
	e.Languages = appendUnique(e.Languages, lang)
}

func (e *Entity) AddLegalDeposit(v string) {
	e.LegalDeposits = appendUnique(e.LegalDeposits, v)
}

// Related returns the entities on the other end of relations of type t.
func (e *Entity) Related(t RelationType) []*Entity {
	var out []*Entity
	for _, r := range e.Relations {
		if r.Type == t {
			out = append(out, Other(r, e))
		}
	}
	return out
}

// FirstRelated returns the first related entity of type t, or nil.
func (e *Entity) FirstRelated(t RelationType) *Entity {
	for _, r := range e.Relations {
		if r.Type == t {
			return Other(r, e)
		}
	}
	return nil
}

// UpdateSlug derives the slug from the display name.
func (e *Entity) UpdateSlug() {
	e.Slug = Slugify(e.DisplayName())
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
