package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/platform/fetch"
	"catalogsearch/internal/query"
)

const queryPlaceholder = "{{query}}"

var recordNumber = regexp.MustCompile(`record=(b\d+)`)

// Innopac scrapes the brief citation list of an INNOPAC/Millennium WebPAC.
// The configured url carries a {{query}} placeholder for the text query.
type Innopac struct {
	base
	codes   query.TextCodes
	pending *fetch.Pending
}

func NewInnopac(log *zap.Logger) Provider {
	return &Innopac{base: newBase(log)}
}

func (p *Innopac) Configure(cfg Config, q *query.Group) error {
	if !strings.Contains(cfg.URL, queryPlaceholder) {
		return &Error{Catalog: cfg.CatalogID, Type: cfg.Type, Op: "configure",
			Err: fmt.Errorf("%w: url must contain %s", ErrInvalidConfig, queryPlaceholder)}
	}
	p.configure(cfg, q)
	p.codes = query.DefaultTextCodes.With(cfg.TextCodes)
	return nil
}

func (p *Innopac) Prepare(r *Round) error {
	if !p.ready {
		return p.fail("prepare", ErrNotConfigured)
	}
	if r == nil {
		return p.fail("prepare", ErrRoundRequired)
	}
	u := strings.ReplaceAll(p.cfg.URL, queryPlaceholder, url.QueryEscape(p.codes.Serialize(p.query)))
	p.pending = r.HTTP().Add(fetch.Request{URL: u, Timeout: p.cfg.TimeoutDuration()})
	return nil
}

func (p *Innopac) Execute(ctx context.Context, r *Round) error {
	if r == nil {
		return p.fail("execute", ErrRoundRequired)
	}
	return r.HTTP().Send(ctx)
}

func (p *Innopac) Results() []*entity.Entity {
	if p.pending == nil {
		return nil
	}
	resp, err := p.pending.Result()
	if err != nil {
		p.log.Warn("search failed", zap.Error(err))
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		p.log.Warn("failed to parse response", zap.Error(err))
		return nil
	}

	var out []*entity.Entity
	doc.Find("tr.briefCitRow").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if w := p.parseRow(row); w != nil {
			out = append(out, w)
		}
		return len(out) < p.cfg.MaxResults
	})
	return out
}

func (p *Innopac) parseRow(row *goquery.Selection) *entity.Entity {
	link := row.Find(".briefcitTitle a").First()
	title := strings.TrimSpace(link.Text())
	if title == "" {
		return nil
	}
	// Brief citations render "Title / statement of responsibility".
	if i := strings.Index(title, " / "); i > 0 {
		title = title[:i]
	}
	w := entity.NewWork(title)

	if href, ok := link.Attr("href"); ok {
		if m := recordNumber.FindStringSubmatch(href); m != nil {
			w.AddIdentifier(entity.Internal, p.cfg.CatalogID+":"+m[1])
		}
	}

	// Text nodes following the title hold the author and then the imprint.
	var lines []string
	row.Find("td.briefcitDetail").Contents().Each(func(_ int, s *goquery.Selection) {
		if n := s.Get(0); n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				lines = append(lines, t)
			}
		}
	})
	if len(lines) > 0 && yearPattern.FindString(lines[0]) == "" {
		author := entity.NewPerson(lines[0])
		if author.Name != "" {
			if _, err := entity.Link(author, entity.AuthorOf, w); err != nil {
				p.log.Warn("skipping author", zap.Error(err))
			}
		}
		lines = lines[1:]
	}
	for _, line := range lines {
		y := yearPattern.FindString(line)
		if y == "" {
			continue
		}
		w.PubYear, _ = strconv.Atoi(y)
		// Imprint: "Place : Publisher, year".
		if i := strings.Index(line, ":"); i >= 0 {
			name := line[i+1:]
			if j := strings.LastIndex(name, ","); j >= 0 {
				name = name[:j]
			}
			if name = strings.TrimSpace(name); name != "" {
				if _, err := entity.Link(entity.NewOrganization(name), entity.PublisherOf, w); err != nil {
					p.log.Warn("skipping publisher", zap.Error(err))
				}
			}
		}
		break
	}

	row.Find("tr.bibItemsEntry").Each(func(_ int, item *goquery.Selection) {
		cells := item.Find("td")
		if cells.Length() < 3 {
			return
		}
		h := entity.NewHolding(strings.TrimSpace(cells.Eq(1).Text()))
		h.CatalogID = p.cfg.CatalogID
		h.LocationName = strings.TrimSpace(cells.Eq(0).Text())
		h.Available, h.Loanable = statusFlags(cells.Eq(2).Text())
		w.AddHolding(h)
	})
	return w
}
