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

const innopacFixture = `<html><body><table>
<tr class="briefCitRow">
  <td class="briefcitEntryNum">1</td>
  <td class="briefcitDetail">
    <span class="briefcitTitle"><a href="/record=b1234567~S1*spi">Computer networking : a top-down approach / James F. Kurose, Keith W. Ross</a></span>
    <br />
    Kurose, James F.<br />
    Boston : Pearson, 2013<br />
    <table class="bibItems">
      <tr class="bibItemsHeader"><th>LOCATION</th><th>CALL #</th><th>STATUS</th></tr>
      <tr class="bibItemsEntry"><td>Informatica</td><td><a href="#">004.7 KUR</a></td><td>DISPONIBLE</td></tr>
      <tr class="bibItemsEntry"><td>Sala</td><td>004.7 KUR ej.2</td><td>DUE 12-11-26</td></tr>
    </table>
  </td>
</tr>
<tr class="briefCitRow">
  <td class="briefcitDetail"><span class="briefcitTitle"><a href="/record=b7654321~S1">Redes de computadoras</a></span></td>
</tr>
</table></body></html>`

func TestInnopac(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `a:"kurose" and t:"networking"`, r.URL.Query().Get("searcharg"))
		w.Write([]byte(innopacFixture))
	}))
	defer srv.Close()

	p := NewInnopac(nil)
	q := query.Parse("author:%kurose% AND title:networking")
	require.NoError(t, p.Configure(Config{
		Type: "innopac", URL: srv.URL + "/search/?searchtype=X&searcharg={{query}}", CatalogID: "uni",
	}, q))

	results := run(t, newTestRound(t), p)
	require.Len(t, results, 2)

	w := results[0]
	assert.Equal(t, "Computer networking: a top-down approach", w.Title)
	v, _ := w.Identifier(entity.Internal)
	assert.Equal(t, "uni:b1234567", v)
	assert.Equal(t, "Kurose, James F.", w.FirstRelated(entity.AuthorOf).Name)
	assert.Equal(t, "Pearson", w.FirstRelated(entity.PublisherOf).Name)
	assert.Equal(t, 2013, w.PubYear)

	require.Len(t, w.Holdings, 2)
	assert.Equal(t, "004.7 KUR", w.Holdings[0].CallNumber)
	assert.Equal(t, "Informatica", w.Holdings[0].LocationName)
	assert.True(t, w.Holdings[0].Available)
	assert.False(t, w.Holdings[1].Available)

	assert.Equal(t, "Redes de computadoras", results[1].Title)
	assert.Empty(t, results[1].Relations)
}

func TestInnopacMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(innopacFixture))
	}))
	defer srv.Close()

	p := NewInnopac(nil)
	require.NoError(t, p.Configure(Config{Type: "innopac", URL: srv.URL + "/?q={{query}}", MaxResults: 1}, query.Parse("x")))
	assert.Len(t, run(t, newTestRound(t), p), 1)
}
