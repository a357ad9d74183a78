package provider

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/query"
)

const openLibraryFixture = `{
  "ISBN:0132856204": {
    "url": "https://openlibrary.org/books/OL26425924M/Computer_Networking",
    "key": "/books/OL26425924M",
    "title": "Computer Networking",
    "subtitle": "A Top-Down Approach",
    "authors": [{"url": "https://openlibrary.org/authors/OL2648558A/James_F._Kurose", "name": "James F. Kurose"}],
    "publishers": [{"name": "Pearson"}],
    "publish_date": "March 5, 2012",
    "number_of_pages": 864,
    "identifiers": {"isbn_10": ["0132856204"], "isbn_13": ["9780132856201"], "oclc": ["778060963"], "openlibrary": ["OL26425924M"]},
    "cover": {"medium": "https://covers.openlibrary.org/b/id/1-M.jpg", "large": "https://covers.openlibrary.org/b/id/1-L.jpg"},
    "ebooks": [{"availability": "full", "read_url": "https://archive.org/details/computernetworki0000kuro"}]
  },
  "OCLC:41266045": {
    "key": "/books/OL1M",
    "title": "Don Quijote",
    "publish_date": "1999"
  }
}`

func TestOpenLibrary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "OCLC:41266045,ISBN:0132856204", r.URL.Query().Get("bibkeys"))
		assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
		w.Write([]byte(openLibraryFixture))
	}))
	defer srv.Close()

	p := NewOpenLibrary(nil)
	q := query.OrOf(query.Compare("oclc", query.Equals, "41266045"), query.Compare("isbn", query.Equals, "0132856204"))
	require.NoError(t, p.Configure(Config{Type: "openlibrary", URL: srv.URL + "/", GetHoldings: boolPtr(true)}, q))

	results := run(t, newTestRound(t), p)
	require.Len(t, results, 2)
	assert.Equal(t, "Don Quijote", results[0].Title)
	assert.Equal(t, 1999, results[0].PubYear)

	w := results[1]
	assert.Equal(t, "Computer Networking", w.Title)
	assert.Equal(t, []int{2012, 3, 5}, []int{w.PubYear, w.PubMonth, w.PubDay})
	assert.Equal(t, "https://covers.openlibrary.org/b/id/1-L.jpg", w.ImageURL)
	v, _ := w.Identifier(entity.OpenLibrary)
	assert.Equal(t, "OL26425924M", v)
	v, _ = w.Identifier(entity.OCLC)
	assert.Equal(t, "778060963", v)

	author := w.FirstRelated(entity.AuthorOf)
	require.NotNil(t, author)
	v, _ = author.Identifier(entity.OpenLibrary)
	assert.Equal(t, "OL2648558A", v)

	require.Len(t, w.Holdings, 1)
	assert.Equal(t, "https://archive.org/details/computernetworki0000kuro", w.Holdings[0].OnlineURL)
}

func TestParsePublishDate(t *testing.T) {
	cases := map[string][3]int{
		"March 5, 2012": {2012, 3, 5},
		"Jan 2004":      {2004, 0, 0},
		"2004":          {2004, 0, 0},
		"May 2010":      {2010, 5, 0},
		"c1998.":        {1998, 0, 0},
		"":              {0, 0, 0},
	}
	for in, want := range cases {
		y, m, d := parsePublishDate(in)
		assert.Equal(t, want, [3]int{y, m, d}, in)
	}
}
