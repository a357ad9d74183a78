// Package knowledge fills related persons with data from Wikidata.
package knowledge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/platform/fetch"
)

const (
	DefaultURL      = "https://www.wikidata.org/w/api.php"
	DefaultLanguage = "es"
	commonsThumbURL = "https://commons.wikimedia.org/w/thumb.php?width=300&f="
	maxIDsPerLookup = 50
	humanItem       = "Q5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Language string `yaml:"language"`
	URL      string `yaml:"url" validate:"omitempty,url"`
	Timeout  int    `yaml:"timeout" validate:"omitempty,min=1"`
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 5
	}
}

// Wikidata looks up persons by name. Misses leave entities untouched.
type Wikidata struct {
	cfg    Config
	client *fetch.Client
	pool   *ants.Pool
	log    *zap.Logger
}

type Option func(*Wikidata)

func WithLogger(l *zap.Logger) Option {
	return func(w *Wikidata) {
		if l != nil {
			w.log = l
		}
	}
}

func New(client *fetch.Client, pool *ants.Pool, cfg Config, opts ...Option) (*Wikidata, error) {
	if pool == nil {
		return nil, fmt.Errorf("wikidata: %w", fetch.ErrPoolRequired)
	}
	if client == nil {
		client = fetch.NewClient()
	}
	cfg.applyDefaults()
	w := &Wikidata{cfg: cfg, client: client, pool: pool, log: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

type wdSearchResponse struct {
	Search []struct {
		ID string `json:"id"`
	} `json:"search"`
}

type wdSnak struct {
	Datatype  string `json:"datatype"`
	Datavalue struct {
		Value jsoniter.RawMessage `json:"value"`
	} `json:"datavalue"`
}

type wdClaim struct {
	Mainsnak wdSnak `json:"mainsnak"`
}

type wdEntity struct {
	ID           string  `json:"id"`
	Missing      *string `json:"missing"`
	Descriptions map[string]struct {
		Value string `json:"value"`
	} `json:"descriptions"`
	Claims map[string][]wdClaim `json:"claims"`
}

type wdEntitiesResponse struct {
	Entities map[string]wdEntity `json:"entities"`
}

// FillEntities enriches every person in entities that has no Wikidata
// identifier yet. Only context cancellation is reported as an error.
func (w *Wikidata) FillEntities(ctx context.Context, entities []*entity.Entity) error {
	byName := make(map[string][]*entity.Entity)
	var names []string
	for _, e := range entities {
		if e == nil || e.Kind != entity.Person || e.Name == "" || e.HasIdentifier(entity.Wikidata) {
			continue
		}
		if _, ok := byName[e.Name]; !ok {
			names = append(names, e.Name)
		}
		byName[e.Name] = append(byName[e.Name], e)
	}
	if len(names) == 0 {
		return nil
	}

	ids, err := w.search(ctx, names)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	data, err := w.lookup(ctx, ids)
	if err != nil {
		return err
	}

	filled := 0
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			continue
		}
		d, ok := data[id]
		if !ok {
			continue
		}
		for _, e := range byName[name] {
			w.fill(e, &d)
			filled++
		}
	}
	w.log.Debug("wikidata fill", zap.Int("persons", len(names)), zap.Int("filled", filled))
	return nil
}

// search resolves each name to the first matching item in one wave.
func (w *Wikidata) search(ctx context.Context, names []string) (map[string]string, error) {
	batch, err := fetch.NewBatch(w.client, w.pool)
	if err != nil {
		return nil, err
	}
	pending := make([]*fetch.Pending, len(names))
	for i, name := range names {
		v := url.Values{}
		v.Set("action", "wbsearchentities")
		v.Set("search", name)
		v.Set("language", w.cfg.Language)
		v.Set("format", "json")
		v.Set("props", "")
		pending[i] = batch.Add(fetch.Request{URL: w.cfg.URL + "?" + v.Encode(), Timeout: w.timeout()})
	}
	if err := batch.Send(ctx); err != nil {
		return nil, err
	}

	ids := make(map[string]string)
	for i, p := range pending {
		resp, err := p.Result()
		if err != nil {
			w.log.Warn("wikidata search failed", zap.String("name", names[i]), zap.Error(err))
			continue
		}
		var res wdSearchResponse
		if err := resp.Decode(&res); err != nil {
			w.log.Warn("failed to decode wikidata search", zap.Error(err))
			continue
		}
		if len(res.Search) > 0 && res.Search[0].ID != "" {
			ids[names[i]] = res.Search[0].ID
		}
	}
	return ids, nil
}

// lookup fetches the matched items, at most maxIDsPerLookup per request.
func (w *Wikidata) lookup(ctx context.Context, ids map[string]string) (map[string]wdEntity, error) {
	seen := make(map[string]bool)
	var all []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			all = append(all, id)
		}
	}

	batch, err := fetch.NewBatch(w.client, w.pool)
	if err != nil {
		return nil, err
	}
	var pending []*fetch.Pending
	for start := 0; start < len(all); start += maxIDsPerLookup {
		end := min(start+maxIDsPerLookup, len(all))
		v := url.Values{}
		v.Set("action", "wbgetentities")
		v.Set("ids", strings.Join(all[start:end], "|"))
		v.Set("languages", w.cfg.Language)
		v.Set("format", "json")
		pending = append(pending, batch.Add(fetch.Request{URL: w.cfg.URL + "?" + v.Encode(), Timeout: w.timeout()}))
	}
	if err := batch.Send(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]wdEntity)
	for _, p := range pending {
		resp, err := p.Result()
		if err != nil {
			w.log.Warn("wikidata lookup failed", zap.Error(err))
			continue
		}
		var res wdEntitiesResponse
		if err := resp.Decode(&res); err != nil {
			w.log.Warn("failed to decode wikidata entities", zap.Error(err))
			continue
		}
		for id, d := range res.Entities {
			if d.Missing != nil {
				continue
			}
			if d.ID == "" {
				d.ID = id
			}
			out[id] = d
		}
	}
	return out, nil
}

func (w *Wikidata) fill(e *entity.Entity, d *wdEntity) {
	e.AddIdentifier(entity.Wikidata, d.ID)
	if img, ok := property(d.Claims, "P18"); ok {
		e.ImageURL = img
	}
	if instance, _ := property(d.Claims, "P31"); instance != humanItem {
		return
	}

	if desc, ok := d.Descriptions[w.cfg.Language]; ok && desc.Value != "" {
		e.Description = desc.Value
	} else {
		for _, desc := range d.Descriptions {
			if desc.Value != "" {
				e.Description = desc.Value
				break
			}
		}
	}
	if t, ok := timeProperty(d.Claims, "P569"); ok {
		e.BirthDate = t
	}
	if t, ok := timeProperty(d.Claims, "P570"); ok {
		e.DeathDate = t
	}
	if sig, ok := property(d.Claims, "P109"); ok {
		e.SignatureURL = sig
	}
}

func (w *Wikidata) timeout() time.Duration {
	return time.Duration(w.cfg.Timeout) * time.Second
}

// property reads the first statement of id as a string. Media files become
// Commons thumbnail URLs and items their Q identifier.
func property(claims map[string][]wdClaim, id string) (string, bool) {
	list := claims[id]
	if len(list) == 0 {
		return "", false
	}
	snak := list[0].Mainsnak
	switch snak.Datatype {
	case "string", "url", "external-id":
		var s string
		if err := json.Unmarshal(snak.Datavalue.Value, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case "commonsMedia":
		var s string
		if err := json.Unmarshal(snak.Datavalue.Value, &s); err != nil || s == "" {
			return "", false
		}
		return commonsThumbURL + strings.ReplaceAll(s, " ", "_"), true
	case "wikibase-item":
		var item struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(snak.Datavalue.Value, &item); err != nil || item.ID == "" {
			return "", false
		}
		return item.ID, true
	}
	return "", false
}

func timeProperty(claims map[string][]wdClaim, id string) (time.Time, bool) {
	list := claims[id]
	if len(list) == 0 || list[0].Mainsnak.Datatype != "time" {
		return time.Time{}, false
	}
	var v struct {
		Time string `json:"time"`
	}
	if err := json.Unmarshal(list[0].Mainsnak.Datavalue.Value, &v); err != nil {
		return time.Time{}, false
	}
	return parseTime(v.Time)
}

// parseTime reads the Wikibase time format, "+1547-09-29T00:00:00Z", where
// unknown month or day are zero. Dates before the common era are ignored.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 10 || strings.HasPrefix(s, "-") {
		return time.Time{}, false
	}
	date := strings.ReplaceAll(s[:10], "-00", "-01")
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
