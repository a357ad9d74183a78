package entity

import (
	"errors"
	"fmt"
)

var ErrInvalidRelation = errors.New("invalid relation")

type RelationType string

const (
	AuthorOf      RelationType = "author_of"
	EditorOf      RelationType = "editor_of"
	IllustratorOf RelationType = "illustrator_of"
	PublisherOf   RelationType = "publisher_of"
	FounderOf     RelationType = "founder_of"
)

type endpoints struct {
	from []Kind
	to   Kind
}

var relationKinds = map[RelationType]endpoints{
	AuthorOf:      {from: []Kind{Person, Organization}, to: Work},
	EditorOf:      {from: []Kind{Person, Organization}, to: Work},
	IllustratorOf: {from: []Kind{Person}, to: Work},
	PublisherOf:   {from: []Kind{Organization}, to: Work},
	FounderOf:     {from: []Kind{Person}, to: Organization},
}

// Relation is a directed edge, e.g. person AuthorOf work.
type Relation struct {
	Type RelationType
	From *Entity
	To   *Entity
}

// NewRelation validates the endpoint kinds for t.
func NewRelation(from *Entity, t RelationType, to *Entity) (*Relation, error) {
	ends, ok := relationKinds[t]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRelation, t)
	}
	if from == nil || to == nil {
		return nil, fmt.Errorf("%w: %s with nil endpoint", ErrInvalidRelation, t)
	}
	if to.Kind != ends.to || !containsKind(ends.from, from.Kind) {
		return nil, fmt.Errorf("%w: %s %s %s", ErrInvalidRelation, from.Kind, t, to.Kind)
	}
	return &Relation{Type: t, From: from, To: to}, nil
}

// Link creates a relation and attaches it to both endpoints.
func Link(from *Entity, t RelationType, to *Entity) (*Relation, error) {
	r, err := NewRelation(from, t, to)
	if err != nil {
		return nil, err
	}
	from.Relations = append(from.Relations, r)
	to.Relations = append(to.Relations, r)
	return r, nil
}

// Other returns the endpoint of r that is not self.
func Other(r *Relation, self *Entity) *Entity {
	if r.To == self {
		return r.From
	}
	return r.To
}

// Repoint replaces the endpoint old with replacement.
func (r *Relation) Repoint(old, replacement *Entity) {
	if r.From == old {
		r.From = replacement
	}
	if r.To == old {
		r.To = replacement
	}
}

func (r *Relation) same(o *Relation) bool {
	return r.Type == o.Type && r.From == o.From && r.To == o.To
}

func (e *Entity) findRelation(r *Relation) *Relation {
	for _, existing := range e.Relations {
		if existing != r && existing.same(r) {
			return existing
		}
	}
	return nil
}

func (e *Entity) removeRelation(r *Relation) {
	for i, existing := range e.Relations {
		if existing == r {
			e.Relations = append(e.Relations[:i], e.Relations[i+1:]...)
			return
		}
	}
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
