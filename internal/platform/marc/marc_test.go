package marc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sruFixture = `<?xml version="1.0"?>
<zs:searchRetrieveResponse xmlns:zs="http://www.loc.gov/zing/srw/">
  <zs:numberOfRecords>1</zs:numberOfRecords>
  <zs:records>
    <zs:record>
      <zs:recordSchema>marcxml</zs:recordSchema>
      <zs:recordData>
        <record xmlns="http://www.loc.gov/MARC21/slim">
          <leader>00000cam a2200000 a 4500</leader>
          <controlfield tag="001">b1234</controlfield>
          <datafield tag="020" ind1=" " ind2=" "><subfield code="a">84-376-0494-X (v. 2)</subfield></datafield>
          <datafield tag="245" ind1="1" ind2="0">
            <subfield code="a">La Galatea /</subfield>
            <subfield code="c">Miguel de Cervantes</subfield>
          </datafield>
          <datafield tag="700" ind1="1" ind2=" ">
            <subfield code="a">Avalle-Arce, Juan Bautista</subfield>
            <subfield code="e">ed.</subfield>
          </datafield>
        </record>
      </zs:recordData>
    </zs:record>
  </zs:records>
</zs:searchRetrieveResponse>`

func TestDecodeSearchResponse(t *testing.T) {
	res, err := DecodeSearchResponse([]byte(sruFixture))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "b1234", r.ControlValue("001"))
	title := r.Fields("245")
	require.Len(t, title, 1)
	assert.Equal(t, "La Galatea /", title[0].Value("a"))
	assert.Equal(t, "1", title[0].Ind1)

	agents := r.Fields("100", "700")
	require.Len(t, agents, 1)
	assert.Equal(t, RelatorEditor, Relator(agents[0].Value("e")))
	assert.Empty(t, r.Fields("999"))
}

func TestDecodeDiagnostics(t *testing.T) {
	body := `<searchRetrieveResponse><numberOfRecords>0</numberOfRecords>
	<diagnostics><diagnostic><uri>info:srw/diagnostic/1/10</uri><message>Query syntax error</message><details>@attr</details></diagnostic></diagnostics>
	</searchRetrieveResponse>`
	res, err := DecodeSearchResponse([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"Query syntax error: @attr"}, res.Diagnostics)

	_, err = DecodeSearchResponse([]byte("not xml"))
	assert.Error(t, err)
}

func TestExtractVolume(t *testing.T) {
	v, ok := ExtractVolume("84-376-0494-X (v. 2)")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = ExtractVolume("84-376-0494-X")
	assert.False(t, ok)
}

func TestRelator(t *testing.T) {
	assert.Equal(t, RelatorEditor, Relator("edt"))
	assert.Equal(t, RelatorIllustrator, Relator("il."))
	assert.Equal(t, RelatorAuthor, Relator("aut"))
	assert.Equal(t, RelatorUnknown, Relator("trl"))
}
