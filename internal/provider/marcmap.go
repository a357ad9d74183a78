package provider

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/platform/marc"
)

var (
	yearPattern  = regexp.MustCompile(`\d{4}`)
	pagesPattern = regexp.MustCompile(`(\d+)\s*(?:p\b|p\.|pages|páginas)`)
	oclcPrefix   = regexp.MustCompile(`^\(OCoLC\)\s*(?:oc[mn]|on)?0*`)
)

// marcMapper turns MARC records into works with their agents and holdings.
type marcMapper struct {
	catalogID string
	log       *zap.Logger
}

func (m marcMapper) work(r *marc.Record) *entity.Entity {
	titles := r.Fields("245")
	if len(titles) == 0 || titles[0].Value("a") == "" {
		return nil
	}
	w := entity.NewWork(trimISBD(titles[0].Value("a")))
	if sub := titles[0].Value("b"); sub != "" {
		w.Subtitle = entity.NormalizeTitle(trimISBD(sub))
	}

	if cn := r.ControlValue("001"); cn != "" {
		w.AddIdentifier(entity.Internal, m.internalID(cn))
	}
	for _, f := range r.Fields("020") {
		raw := f.Value("a")
		if fields := strings.Fields(raw); len(fields) > 0 {
			w.AddISBN(fields[0])
		}
		if v, ok := marc.ExtractVolume(raw); ok && v > w.Volumes {
			w.Volumes = v
		}
	}
	for _, f := range r.Fields("035") {
		if v := f.Value("a"); oclcPrefix.MatchString(v) {
			w.AddIdentifier(entity.OCLC, oclcPrefix.ReplaceAllString(v, ""))
		}
	}
	for _, f := range r.Fields("017") {
		w.AddLegalDeposit(f.Value("a"))
	}

	if f := r.ControlValue("008"); len(f) >= 38 {
		if lang := strings.TrimSpace(f[35:38]); lang != "" && lang != "|||" {
			w.AddLanguage(lang)
		}
	}
	for _, f := range r.Fields("041") {
		for _, lang := range f.Values("a") {
			w.AddLanguage(lang)
		}
	}

	for _, f := range r.Fields("300") {
		if mm := pagesPattern.FindStringSubmatch(f.Value("a")); mm != nil {
			w.Pages, _ = strconv.Atoi(mm[1])
		}
	}

	m.publication(w, r)
	m.agents(w, r)
	m.holdings(w, r)
	return w
}

func (m marcMapper) internalID(controlNumber string) string {
	if m.catalogID == "" {
		return controlNumber
	}
	return m.catalogID + ":" + controlNumber
}

func (m marcMapper) publication(w *entity.Entity, r *marc.Record) {
	for _, f := range r.Fields("260", "264") {
		if f.Tag == "264" && f.Ind2 != "1" && f.Ind2 != " " && f.Ind2 != "" {
			continue
		}
		if name := strings.Trim(f.Value("b"), " :,;"); name != "" && w.FirstRelated(entity.PublisherOf) == nil {
			if _, err := entity.Link(entity.NewOrganization(name), entity.PublisherOf, w); err != nil {
				m.log.Warn("skipping publisher", zap.String("name", name), zap.Error(err))
			}
		}
		if y := yearPattern.FindString(f.Value("c")); y != "" && w.PubYear == 0 {
			w.PubYear, _ = strconv.Atoi(y)
		}
	}
}

func (m marcMapper) agents(w *entity.Entity, r *marc.Record) {
	for _, f := range r.Fields("100", "110", "700", "710") {
		name := f.Value("a")
		if name == "" {
			continue
		}

		var agent *entity.Entity
		if f.Tag == "110" || f.Tag == "710" {
			if sub := f.Value("b"); sub != "" {
				name += " " + sub
			}
			agent = entity.NewOrganization(name)
		} else {
			agent = entity.NewPerson(name)
		}

		codes := f.Values("4")
		if len(codes) == 0 {
			codes = f.Values("e")
		}
		for _, t := range m.relations(codes) {
			if _, err := entity.Link(agent, t, w); err != nil {
				m.log.Warn("skipping agent relation",
					zap.String("name", agent.Name), zap.String("relation", string(t)), zap.Error(err))
			}
		}
	}
}

// trimISBD drops the punctuation that separates MARC subfields, as in
// "Computer networking :".
func trimISBD(s string) string {
	return strings.TrimRight(s, " :;=/")
}

// relations maps relator codes to relation types. Unknown codes are taken to
// mean authorship.
func (m marcMapper) relations(codes []string) []entity.RelationType {
	if len(codes) == 0 {
		return []entity.RelationType{entity.AuthorOf}
	}
	seen := make(map[entity.RelationType]bool)
	var out []entity.RelationType
	for _, code := range codes {
		var t entity.RelationType
		switch marc.Relator(code) {
		case marc.RelatorEditor:
			t = entity.EditorOf
		case marc.RelatorIllustrator:
			t = entity.IllustratorOf
		case marc.RelatorAuthor:
			t = entity.AuthorOf
		default:
			m.log.Warn("unknown relator code, assuming author", zap.String("code", code))
			t = entity.AuthorOf
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

var (
	unavailableStatus = []string{"prestado", "on loan", "checked out", "due", "en tránsito", "in transit", "missing", "perdido"}
	notLoanableStatus = []string{"no prestable", "not for loan", "reference", "consulta"}
)

// statusFlags reads availability and loanability from a free-text item status.
func statusFlags(status string) (available, loanable bool) {
	s := strings.ToLower(status)
	available, loanable = true, true
	for _, kw := range unavailableStatus {
		if strings.Contains(s, kw) {
			available = false
			break
		}
	}
	for _, kw := range notLoanableStatus {
		if strings.Contains(s, kw) {
			loanable = false
			break
		}
	}
	return available, loanable
}

func (m marcMapper) holdings(w *entity.Entity, r *marc.Record) {
	for _, f := range r.Fields("852") {
		callNumber := strings.TrimSpace(strings.Join(append(f.Values("h"), f.Values("i")...), " "))
		h := entity.NewHolding(callNumber)
		h.CatalogID = m.catalogID
		h.LocationName = strings.TrimSpace(f.Value("b") + " " + f.Value("c"))
		status := f.Value("z")
		if status == "" {
			status = f.Value("y")
		}
		h.Available, h.Loanable = statusFlags(status)
		w.AddHolding(h)
	}
	for _, f := range r.Fields("856") {
		if u := f.Value("u"); u != "" {
			h := entity.NewHolding("")
			h.CatalogID = m.catalogID
			h.SetOnlineURL(u)
			w.AddHolding(h)
		}
	}
}
