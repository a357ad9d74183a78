// Package marc decodes MARCXML records, as returned by SRU servers, into
// tag and subfield facts.
package marc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Record struct {
	Leader  string         `xml:"leader"`
	Control []ControlField `xml:"controlfield"`
	Data    []DataField    `xml:"datafield"`
}

type ControlField struct {
	Tag   string `xml:"tag,attr"`
	Value string `xml:",chardata"`
}

type DataField struct {
	Tag       string     `xml:"tag,attr"`
	Ind1      string     `xml:"ind1,attr"`
	Ind2      string     `xml:"ind2,attr"`
	Subfields []Subfield `xml:"subfield"`
}

type Subfield struct {
	Code  string `xml:"code,attr"`
	Value string `xml:",chardata"`
}

// ControlValue returns the value of the first control field with tag.
func (r *Record) ControlValue(tag string) string {
	for _, f := range r.Control {
		if f.Tag == tag {
			return strings.TrimSpace(f.Value)
		}
	}
	return ""
}

// Fields returns the data fields with any of the given tags, in record order.
func (r *Record) Fields(tags ...string) []DataField {
	var out []DataField
	for _, f := range r.Data {
		for _, t := range tags {
			if f.Tag == t {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Value returns the first subfield with code, trimmed.
func (f DataField) Value(code string) string {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return strings.TrimSpace(sf.Value)
		}
	}
	return ""
}

// Values returns every subfield with code, trimmed.
func (f DataField) Values(code string) []string {
	var out []string
	for _, sf := range f.Subfields {
		if sf.Code == code {
			if v := strings.TrimSpace(sf.Value); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// SearchResponse is the subset of an SRU searchRetrieve response we read.
type SearchResponse struct {
	Total       int
	Records     []Record
	Diagnostics []string
}

type sruResponse struct {
	XMLName xml.Name `xml:"searchRetrieveResponse"`
	Total   int      `xml:"numberOfRecords"`
	Records []struct {
		Schema string `xml:"recordSchema"`
		Data   struct {
			Record Record `xml:"record"`
		} `xml:"recordData"`
	} `xml:"records>record"`
	Diagnostics []struct {
		URI     string `xml:"uri"`
		Details string `xml:"details"`
		Message string `xml:"message"`
	} `xml:"diagnostics>diagnostic"`
}

// DecodeSearchResponse parses an SRU searchRetrieve response carrying MARCXML
// records.
func DecodeSearchResponse(body []byte) (*SearchResponse, error) {
	var raw sruResponse
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode sru response: %w", err)
	}

	out := &SearchResponse{Total: raw.Total}
	for _, r := range raw.Records {
		out.Records = append(out.Records, r.Data.Record)
	}
	for _, d := range raw.Diagnostics {
		msg := strings.TrimSpace(d.Message)
		if msg == "" {
			msg = d.URI
		}
		if d.Details != "" {
			msg += ": " + d.Details
		}
		out.Diagnostics = append(out.Diagnostics, msg)
	}
	return out, nil
}

var volumePattern = regexp.MustCompile(`.+ \(.+\. ([0-9]+)\)`)

// ExtractVolume reads the volume number qualifying an ISBN or legal deposit,
// e.g. "84-376-0494-X (v. 2)".
func ExtractVolume(s string) (int, bool) {
	m := volumePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// Relator kinds a MARC relator code or term can map to.
const (
	RelatorUnknown     = ""
	RelatorAuthor      = "author"
	RelatorEditor      = "editor"
	RelatorIllustrator = "illustrator"
)

var nonLetters = regexp.MustCompile(`[^a-z]`)

// Relator maps a relator code ($4) or term ($e) to a relator kind.
func Relator(code string) string {
	switch nonLetters.ReplaceAllString(strings.ToLower(code), "") {
	case "aut", "author", "autor", "cre":
		return RelatorAuthor
	case "ed", "edt", "edc", "edm", "editor":
		return RelatorEditor
	case "il", "ill", "art", "illustrator", "ilustrador":
		return RelatorIllustrator
	}
	return RelatorUnknown
}
