package provider

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/platform/fetch"
	"catalogsearch/internal/query"
)

const (
	googleBooksURL        = "https://www.googleapis.com/books/v1/volumes"
	googleBooksMaxResults = 40
)

// GoogleBooks looks up ISBN comparisons in the Google Books volumes API.
type GoogleBooks struct {
	base
	pending []*fetch.Pending
}

func NewGoogleBooks(log *zap.Logger) Provider {
	return &GoogleBooks{base: newBase(log)}
}

type gbVolumes struct {
	Items []gbVolume `json:"items"`
}

type gbVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		PageCount           int      `json:"pageCount"`
		Language            string   `json:"language"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		ImageLinks struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
	SaleInfo struct {
		IsEbook     bool   `json:"isEbook"`
		Saleability string `json:"saleability"`
		BuyLink     string `json:"buyLink"`
	} `json:"saleInfo"`
}

func (p *GoogleBooks) Configure(cfg Config, q *query.Group) error {
	if cfg.URL == "" {
		cfg.URL = googleBooksURL
	}
	p.configure(cfg, q)
	return nil
}

func (p *GoogleBooks) Prepare(r *Round) error {
	if !p.ready {
		return p.fail("prepare", ErrNotConfigured)
	}
	if r == nil {
		return p.fail("prepare", ErrRoundRequired)
	}

	var terms []string
	for _, c := range p.flatComparisons(query.ISBNField) {
		terms = append(terms, "isbn:"+c.Value)
	}
	op := string(p.query.Operator())
	if op == "" {
		op = string(query.Or)
	}

	maxResults := p.cfg.MaxResults
	if maxResults > googleBooksMaxResults {
		maxResults = googleBooksMaxResults
	}
	for _, part := range chunk(terms, p.cfg.ChunkSize) {
		v := url.Values{}
		v.Set("q", strings.Join(part, " "+op+" "))
		v.Set("maxResults", strconv.Itoa(maxResults))
		if p.cfg.Key != "" {
			v.Set("key", p.cfg.Key)
		}
		if p.cfg.Country != "" {
			v.Set("country", p.cfg.Country)
		}
		p.pending = append(p.pending, r.HTTP().Add(fetch.Request{
			URL:     p.cfg.URL + "?" + v.Encode(),
			Timeout: p.cfg.TimeoutDuration(),
		}))
	}
	return nil
}

func (p *GoogleBooks) Execute(ctx context.Context, r *Round) error {
	if r == nil {
		return p.fail("execute", ErrRoundRequired)
	}
	return r.HTTP().Send(ctx)
}

func (p *GoogleBooks) Results() []*entity.Entity {
	var out []*entity.Entity
	for _, pending := range p.pending {
		resp, err := pending.Result()
		if err != nil {
			p.log.Warn("search failed", zap.Error(err))
			continue
		}
		var res gbVolumes
		if err := resp.Decode(&res); err != nil {
			p.log.Warn("failed to decode response", zap.Error(err))
			continue
		}
		for i := range res.Items {
			if w := p.toWork(&res.Items[i]); w != nil {
				out = append(out, w)
			}
		}
	}
	return out
}

func (p *GoogleBooks) toWork(v *gbVolume) *entity.Entity {
	info := &v.VolumeInfo
	if info.Title == "" {
		return nil
	}
	w := entity.NewWork(info.Title)
	if info.Subtitle != "" {
		w.Subtitle = entity.NormalizeTitle(info.Subtitle)
	}

	for _, name := range info.Authors {
		if _, err := entity.Link(entity.NewPerson(name), entity.AuthorOf, w); err != nil {
			p.log.Warn("skipping author", zap.Error(err))
		}
	}
	if info.Publisher != "" {
		if _, err := entity.Link(entity.NewOrganization(info.Publisher), entity.PublisherOf, w); err != nil {
			p.log.Warn("skipping publisher", zap.Error(err))
		}
	}
	w.PubYear, w.PubMonth, w.PubDay = splitDate(info.PublishedDate)

	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_10" || id.Type == "ISBN_13" {
			w.AddISBN(id.Identifier)
		}
	}
	w.AddIdentifier(entity.GoogleBooks, v.ID)

	w.Pages = info.PageCount
	w.ImageURL = info.ImageLinks.Thumbnail
	w.AddLanguage(info.Language)

	if p.cfg.Holdings() {
		if h, ok := p.holding(v); ok {
			w.AddHolding(h)
		}
	}
	return w
}

func (p *GoogleBooks) holding(v *gbVolume) (entity.Holding, bool) {
	sale := v.SaleInfo
	if !sale.IsEbook || (sale.Saleability != "FOR_SALE" && sale.Saleability != "FREE") || sale.BuyLink == "" {
		return entity.Holding{}, false
	}
	h := entity.NewHolding("")
	h.CatalogID = p.cfg.CatalogID
	if h.CatalogID == "" {
		h.CatalogID = string(entity.GoogleBooks)
	}
	h.SetOnlineURL(sale.BuyLink)
	return h, true
}

// splitDate reads "YYYY", "YYYY-MM" or "YYYY-MM-DD".
func splitDate(s string) (year, month, day int) {
	parts := strings.SplitN(s, "-", 3)
	vals := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2]
}
