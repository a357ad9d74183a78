package entity

import "catalogsearch/internal/isbn"

type IdentifierType string

const (
	Internal    IdentifierType = "internal"
	ISBN10      IdentifierType = "isbn10"
	ISBN13      IdentifierType = "isbn13"
	OCLC        IdentifierType = "oclc"
	GoogleBooks IdentifierType = "googlebooks"
	OpenLibrary IdentifierType = "openlibrary"
	Wikidata    IdentifierType = "wikidata"
)

var queryFields = map[IdentifierType]string{
	ISBN10: "isbn",
	ISBN13: "isbn",
	OCLC:   "oclc",
}

type Identifier struct {
	Type  IdentifierType
	Value string
}

// Key is the identity of the identifier, "{type}value".
func (id Identifier) Key() string {
	return "{" + string(id.Type) + "}" + id.Value
}

func (id Identifier) String() string { return id.Key() }

// QueryField returns the query field the identifier can be searched by.
func (id Identifier) QueryField() (string, bool) {
	f, ok := queryFields[id.Type]
	return f, ok
}

// Links reports whether the identifier takes part in record linkage. ISBN-13s
// are excluded: the ISBN-10 of the same book already links it, and multi-volume
// sets share ISBN-13s across distinct records.
func (id Identifier) Links() bool {
	return id.Type != ISBN13
}

// AddISBN validates raw and adds its ISBN-10 and ISBN-13 forms.
func (e *Entity) AddISBN(raw string) bool {
	added := false
	if v, err := isbn.To10(raw); err == nil {
		added = e.AddIdentifier(ISBN10, v) || added
	}
	if v, err := isbn.To13(raw); err == nil {
		added = e.AddIdentifier(ISBN13, v) || added
	}
	return added
}
