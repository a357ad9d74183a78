package provider

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/platform/fetch"
	"catalogsearch/internal/query"
)

const openLibraryURL = "https://openlibrary.org"

var openLibraryKey = regexp.MustCompile(`/(?:authors|books|works)/(OL\w+)`)

// OpenLibrary looks up ISBN and OCLC comparisons through the Open Library
// books API.
type OpenLibrary struct {
	base
	requests []olRequest
}

type olRequest struct {
	bibkeys []string
	pending *fetch.Pending
}

func NewOpenLibrary(log *zap.Logger) Provider {
	return &OpenLibrary{base: newBase(log)}
}

type olPublisher struct {
	Name string `json:"name"`
}

// olBook matches api/books?jscmd=data.
type olBook struct {
	URL         string        `json:"url"`
	Key         string        `json:"key"`
	Title       string        `json:"title"`
	Subtitle    string        `json:"subtitle"`
	Publishers  []olPublisher `json:"publishers"`
	PublishDate string        `json:"publish_date"`
	Cover       struct {
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
	Authors []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"authors"`
	NumberOfPages int `json:"number_of_pages"`
	Identifiers   struct {
		ISBN10      []string `json:"isbn_10"`
		ISBN13      []string `json:"isbn_13"`
		OCLC        []string `json:"oclc"`
		OpenLibrary []string `json:"openlibrary"`
	} `json:"identifiers"`
	Ebooks []struct {
		Availability string `json:"availability"`
		PreviewURL   string `json:"preview_url"`
		ReadURL      string `json:"read_url"`
	} `json:"ebooks"`
}

func (p *OpenLibrary) Configure(cfg Config, q *query.Group) error {
	if cfg.URL == "" {
		cfg.URL = openLibraryURL
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	p.configure(cfg, q)
	return nil
}

func (p *OpenLibrary) Prepare(r *Round) error {
	if !p.ready {
		return p.fail("prepare", ErrNotConfigured)
	}
	if r == nil {
		return p.fail("prepare", ErrRoundRequired)
	}

	var bibkeys []string
	for _, c := range p.flatComparisons(query.ISBNField, "oclc") {
		if strings.EqualFold(c.Field, "oclc") {
			bibkeys = append(bibkeys, "OCLC:"+c.Value)
		} else {
			bibkeys = append(bibkeys, "ISBN:"+c.Value)
		}
	}

	for _, part := range chunk(bibkeys, p.cfg.ChunkSize) {
		v := url.Values{}
		v.Set("bibkeys", strings.Join(part, ","))
		v.Set("jscmd", "data")
		v.Set("format", "json")
		p.requests = append(p.requests, olRequest{
			bibkeys: part,
			pending: r.HTTP().Add(fetch.Request{
				URL:     p.cfg.URL + "/api/books?" + v.Encode(),
				Timeout: p.cfg.TimeoutDuration(),
			}),
		})
	}
	return nil
}

func (p *OpenLibrary) Execute(ctx context.Context, r *Round) error {
	if r == nil {
		return p.fail("execute", ErrRoundRequired)
	}
	return r.HTTP().Send(ctx)
}

func (p *OpenLibrary) Results() []*entity.Entity {
	var out []*entity.Entity
	for _, req := range p.requests {
		resp, err := req.pending.Result()
		if err != nil {
			p.log.Warn("search failed", zap.Error(err))
			continue
		}
		var res map[string]olBook
		if err := resp.Decode(&res); err != nil {
			p.log.Warn("failed to decode response", zap.Error(err))
			continue
		}
		// Keep request order; the response is an unordered object.
		for _, key := range req.bibkeys {
			book, ok := res[key]
			if !ok {
				continue
			}
			if w := p.toWork(&book); w != nil {
				out = append(out, w)
			}
		}
	}
	return out
}

func (p *OpenLibrary) toWork(b *olBook) *entity.Entity {
	if b.Title == "" {
		return nil
	}
	w := entity.NewWork(b.Title)
	if b.Subtitle != "" {
		w.Subtitle = entity.NormalizeTitle(b.Subtitle)
	}

	for _, a := range b.Authors {
		person := entity.NewPerson(a.Name)
		if m := openLibraryKey.FindStringSubmatch(a.URL); m != nil {
			person.AddIdentifier(entity.OpenLibrary, m[1])
		}
		if _, err := entity.Link(person, entity.AuthorOf, w); err != nil {
			p.log.Warn("skipping author", zap.Error(err))
		}
	}
	if len(b.Publishers) > 0 && b.Publishers[0].Name != "" {
		if _, err := entity.Link(entity.NewOrganization(b.Publishers[0].Name), entity.PublisherOf, w); err != nil {
			p.log.Warn("skipping publisher", zap.Error(err))
		}
	}
	w.PubYear, w.PubMonth, w.PubDay = parsePublishDate(b.PublishDate)
	w.Pages = b.NumberOfPages

	for _, v := range b.Identifiers.ISBN10 {
		w.AddISBN(v)
	}
	for _, v := range b.Identifiers.ISBN13 {
		w.AddISBN(v)
	}
	for _, v := range b.Identifiers.OCLC {
		w.AddIdentifier(entity.OCLC, v)
	}
	if m := openLibraryKey.FindStringSubmatch(b.Key); m != nil {
		w.AddIdentifier(entity.OpenLibrary, m[1])
	} else {
		for _, v := range b.Identifiers.OpenLibrary {
			w.AddIdentifier(entity.OpenLibrary, v)
		}
	}

	w.ImageURL = b.Cover.Large
	if w.ImageURL == "" {
		w.ImageURL = b.Cover.Medium
	}

	if p.cfg.Holdings() {
		for _, e := range b.Ebooks {
			if e.Availability != "full" {
				continue
			}
			link := e.ReadURL
			if link == "" {
				link = e.PreviewURL
			}
			if link == "" {
				continue
			}
			h := entity.NewHolding("")
			h.CatalogID = p.cfg.CatalogID
			if h.CatalogID == "" {
				h.CatalogID = string(entity.OpenLibrary)
			}
			h.SetOnlineURL(link)
			w.AddHolding(h)
			break
		}
	}
	return w
}

var publishDateLayouts = []string{"January 2, 2006", "Jan 2, 2006", "January 2006", "2006-01-02", "2006-01", "2006"}

// parsePublishDate reads the free-form Open Library publish_date.
func parsePublishDate(s string) (year, month, day int) {
	s = strings.TrimSpace(s)
	for _, layout := range publishDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		year = t.Year()
		if strings.Contains(layout, "01") || strings.Contains(layout, "Jan") {
			month = int(t.Month())
		}
		if strings.Contains(layout, "2,") || strings.HasSuffix(layout, "-02") {
			day = t.Day()
		}
		return year, month, day
	}
	if y := yearPattern.FindString(s); y != "" {
		year, _, _ = splitDate(y)
	}
	return year, 0, 0
}
