package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogRecord = `<searchRetrieveResponse><numberOfRecords>1</numberOfRecords><records><record><recordData>
<record xmlns="http://www.loc.gov/MARC21/slim">
 <controlfield tag="001">b1</controlfield>
 <datafield tag="100" ind1="1" ind2=" "><subfield code="a">Cervantes Saavedra, Miguel de</subfield></datafield>
 <datafield tag="245" ind1="1" ind2="0"><subfield code="a">La Galatea</subfield></datafield>
</record></recordData></record></records></searchRetrieveResponse>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "catalogs.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestQueryCommand(t *testing.T) {
	out, err := execute(t, "query", "-s", "rpn", "Kurose")
	require.NoError(t, err)
	assert.Equal(t, `@or @attr 1=4 "Kurose" @attr 1=1003 "Kurose"`+"\n", out)

	// Unknown syntaxes fall back to the debug string.
	fallback, err := execute(t, "query", "-s", "marc", "title:galatea")
	require.NoError(t, err)
	plain, err := execute(t, "query", "title:galatea")
	require.NoError(t, err)
	assert.Equal(t, plain, fallback)

	_, err = execute(t, "query")
	assert.Error(t, err)

	// Quoted shell arguments arrive as separate tokens.
	tokens, err := execute(t, "query", "title:la galatea", "AND", "author:cervantes")
	require.NoError(t, err)
	assert.Equal(t, `(<title EQUALS "la galatea"> AND <author EQUALS "cervantes">)`+"\n", tokens)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"token sequence", []string{"title:la galatea", "OR", "(author:x AND date:1585)"}, `(<title EQUALS "la galatea"> OR (<author EQUALS "x"> AND <date EQUALS "1585">))`},
		{"single query string", []string{"title:galatea AND author:cervantes"}, `(<title EQUALS "galatea"> AND <author EQUALS "cervantes">)`},
		{"free text", []string{"computer", "networking"}, `(<any CONTAINS "computer networking">)`},
		{"isbn", []string{"9780132856201"}, `(<isbn EQUALS "9780132856201">)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseArgs(tt.args).String())
		})
	}
}

func TestCatalogsCommand(t *testing.T) {
	path := writeConfig(t, `
catalogs:
  - id: central
    name: Biblioteca Central
    provider:
      type: sru
      url: https://sru.example.org/central
external_providers:
  - preset: openlibrary
`)
	out, err := execute(t, "catalogs", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "central")
	assert.Contains(t, out, "Biblioteca Central")
	assert.Contains(t, out, "openlibrary")

	_, err = execute(t, "catalogs", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	t.Setenv("DB_DSN", "")
	sru := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogRecord))
	}))
	defer sru.Close()
	wikidata := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"search":[]}`))
	}))
	defer wikidata.Close()

	path := writeConfig(t, `
catalogs:
  - id: central
    provider:
      type: sru
      url: `+sru.URL+`
  - id: other
    provider:
      type: sru
      url: http://127.0.0.1:1
wikidata:
  url: `+wikidata.URL+`
http:
  max_retries: 0
`)
	out, err := execute(t, "search", "--config", path, "-d", "central", "galatea")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Found 1 results:\n"), out)
	assert.Contains(t, out, `"name": "La Galatea"`)
	assert.Contains(t, out, "Cervantes Saavedra, Miguel de")
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitIDs(" a,,b ,"))
	assert.Nil(t, splitIDs(""))
}
