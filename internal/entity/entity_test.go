package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Don Quijote: de la Mancha", NormalizeTitle("[Don Quijote  : de la Mancha (novela) /]"))
	assert.Equal(t, "Computer networking", NormalizeTitle("Computer networking [recurso electrónico]."))
	assert.Equal(t, "Kurose, James F.", NormalizeName("Kurose,  James F."))
	assert.Equal(t, "Cervantes Saavedra, Miguel de", NormalizeName("Cervantes Saavedra, Miguel de."))
	assert.Equal(t, "Ross Keith", NormalizeName("Ross K Keith"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "miguel-de-cervantes", Slugify("Miguel de Cervantes"))
	assert.Equal(t, "el-nino-de-la-bola", Slugify("  El niño de la bola! "))
	assert.Equal(t, "person:jose saramago", NameTag(&Entity{Kind: Person, Name: "José  Saramago"}))
}

func TestIdentifiers(t *testing.T) {
	w := NewWork("Computer networking")
	assert.True(t, w.AddISBN("0-13-285620-4"))
	assert.False(t, w.AddISBN("9780132856201"))

	v, ok := w.Identifier(ISBN13)
	require.True(t, ok)
	assert.Equal(t, "9780132856201", v)
	assert.Len(t, w.Identifiers, 2)

	id := Identifier{Type: ISBN10, Value: "0132856204"}
	assert.Equal(t, "{isbn10}0132856204", id.Key())
	f, ok := id.QueryField()
	assert.True(t, ok)
	assert.Equal(t, "isbn", f)
	assert.True(t, id.Links())
	assert.False(t, Identifier{Type: ISBN13, Value: "x"}.Links())

	_, ok = Identifier{Type: GoogleBooks, Value: "x"}.QueryField()
	assert.False(t, ok)
	assert.False(t, w.AddIdentifier(OCLC, ""))
}

func TestRelations(t *testing.T) {
	book := NewWork("La Galatea")
	author := NewPerson("Cervantes, Miguel de")
	publisher := NewOrganization("Project Gutenberg")

	t.Run("valid relations link both ends", func(t *testing.T) {
		r, err := Link(author, AuthorOf, book)
		require.NoError(t, err)
		assert.Same(t, author, Other(r, book))
		assert.Same(t, book, Other(r, author))
		assert.Equal(t, []*Entity{author}, book.Related(AuthorOf))
		assert.Same(t, book, author.FirstRelated(AuthorOf))
	})

	t.Run("kind mismatch is rejected", func(t *testing.T) {
		_, err := NewRelation(book, AuthorOf, author)
		assert.ErrorIs(t, err, ErrInvalidRelation)
		_, err = NewRelation(author, PublisherOf, book)
		assert.ErrorIs(t, err, ErrInvalidRelation)
		_, err = NewRelation(author, FounderOf, publisher)
		assert.NoError(t, err)
		_, err = NewRelation(author, "translator_of", book)
		assert.ErrorIs(t, err, ErrInvalidRelation)
	})

	t.Run("holding online url", func(t *testing.T) {
		h := NewHolding("004.7 KUR")
		assert.True(t, h.Loanable)
		h.SetOnlineURL("https://example.org/book")
		assert.False(t, h.Loanable)
		assert.True(t, h.Available)
	})
}

func TestMerge(t *testing.T) {
	a := NewWork("Computer networking")
	a.AddISBN("0132856204")
	a.AddLanguage("eng")
	a.Pages = 864

	b := NewWork("Computer networking: a top-down approach")
	b.AddIdentifier(GoogleBooks, "gb1")
	b.AddLanguage("eng")
	b.AddLanguage("spa")
	b.ImageURL = "https://img.example/1.jpg"

	authorA := NewPerson("Kurose, James F.")
	authorB := NewPerson("Ross, Keith W.")
	_, err := Link(authorA, AuthorOf, a)
	require.NoError(t, err)
	_, err = Link(authorA, AuthorOf, b)
	require.NoError(t, err)
	_, err = Link(authorB, AuthorOf, b)
	require.NoError(t, err)

	Merge(a, b)

	assert.Equal(t, "Computer networking: a top-down approach", a.Title)
	assert.Equal(t, 864, a.Pages)
	assert.Equal(t, []string{"eng", "spa"}, a.Languages)
	assert.Equal(t, "https://img.example/1.jpg", a.ImageURL)
	assert.True(t, a.HasIdentifier(GoogleBooks))
	assert.True(t, a.HasIdentifier(ISBN10))

	assert.Empty(t, b.Relations)
	assert.ElementsMatch(t, []*Entity{authorA, authorB}, a.Related(AuthorOf))
	// The duplicate author edge is dropped from the person side too.
	assert.Len(t, authorA.Relations, 1)
	assert.Same(t, a, authorB.FirstRelated(AuthorOf))
}

func TestMergeOrder(t *testing.T) {
	newA := func() *Entity {
		e := NewWork("Computer networking")
		e.AddISBN("0132856204")
		e.AddLanguage("eng")
		e.AddHolding(NewHolding("004.7 KUR"))
		e.Pages = 864
		return e
	}
	newB := func() *Entity {
		e := NewWork("Computer Networking")
		e.AddIdentifier(GoogleBooks, "gb1")
		e.AddLanguage("spa")
		e.AddHolding(NewHolding("004.7 KUR"))
		online := NewHolding("")
		online.SetOnlineURL("https://books.example/gb1")
		e.AddHolding(online)
		e.Pages = 852
		e.ImageURL = "https://img.example/1.jpg"
		return e
	}

	ab := newA()
	Merge(ab, newB())
	ba := newB()
	Merge(ba, newA())

	t.Run("non-conflicting fields match in either order", func(t *testing.T) {
		assert.ElementsMatch(t, ab.Identifiers, ba.Identifiers)
		assert.ElementsMatch(t, ab.Languages, ba.Languages)
		assert.ElementsMatch(t, ab.Holdings, ba.Holdings)
		assert.Len(t, ab.Holdings, 2)
		assert.Equal(t, ab.ImageURL, ba.ImageURL)
	})

	t.Run("conflicting scalars take the later value", func(t *testing.T) {
		assert.Equal(t, "Computer Networking", ab.Title)
		assert.Equal(t, 852, ab.Pages)
		assert.Equal(t, "Computer networking", ba.Title)
		assert.Equal(t, 864, ba.Pages)
	})
}
