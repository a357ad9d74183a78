package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/platform/fetch"
	"catalogsearch/internal/platform/marc"
	"catalogsearch/internal/query"
)

const defaultRecordSchema = "marcxml"

// SRU searches structured bibliographic servers. The query is sent in prefix
// (RPN) notation through the x-pquery parameter and records come back as
// MARCXML. Z39.50 catalogs are reached through their SRU gateway.
type SRU struct {
	base
	codes query.RPNCodes

	resp *fetch.Response
	err  error
	sent bool
}

func NewSRU(log *zap.Logger) Provider {
	return &SRU{base: newBase(log)}
}

func (p *SRU) Configure(cfg Config, q *query.Group) error {
	if cfg.URL == "" {
		return &Error{Catalog: cfg.CatalogID, Type: cfg.Type, Op: "configure", Err: fmt.Errorf("%w: url required", ErrInvalidConfig)}
	}
	p.configure(cfg, q)
	p.codes = query.DefaultRPNCodes.With(cfg.RPNCodes)
	return nil
}

func (p *SRU) searchURL() (string, error) {
	u, err := url.Parse(p.cfg.URL)
	if err != nil {
		return "", err
	}
	schema := p.cfg.Syntax
	if schema == "" || strings.EqualFold(schema, "usmarc") || strings.EqualFold(schema, "marc21") {
		schema = defaultRecordSchema
	}

	v := u.Query()
	v.Set("version", "1.1")
	v.Set("operation", "searchRetrieve")
	v.Set("x-pquery", p.codes.Serialize(p.query))
	v.Set("maximumRecords", strconv.Itoa(p.cfg.MaxResults))
	v.Set("recordSchema", schema)
	if p.cfg.Group != "" {
		v.Set("x-group", p.cfg.Group)
	}
	u.RawQuery = v.Encode()
	return u.String(), nil
}

func (p *SRU) Prepare(r *Round) error {
	if !p.ready {
		return p.fail("prepare", ErrNotConfigured)
	}
	if r == nil {
		return p.fail("prepare", ErrRoundRequired)
	}
	u, err := p.searchURL()
	if err != nil {
		return p.fail("prepare", err)
	}

	req := fetch.Request{URL: u, Timeout: p.cfg.TimeoutDuration()}
	if p.cfg.User != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(p.cfg.User + ":" + p.cfg.Password))
		req.Header = http.Header{"Authorization": {"Basic " + creds}}
	}

	client := r.Client()
	r.Protocol().Add(func(ctx context.Context) {
		p.resp, p.err = client.Do(ctx, req)
		p.sent = true
	}, p.cfg.TimeoutDuration())
	return nil
}

func (p *SRU) Execute(ctx context.Context, r *Round) error {
	if r == nil {
		return p.fail("execute", ErrRoundRequired)
	}
	return r.Protocol().Wait(ctx)
}

func (p *SRU) Results() []*entity.Entity {
	if !p.sent {
		return nil
	}
	if p.err != nil {
		p.log.Warn("search failed", zap.Error(p.err))
		return nil
	}

	res, err := marc.DecodeSearchResponse(p.resp.Body)
	if err != nil {
		p.log.Warn("failed to decode response", zap.Error(err))
		return nil
	}
	if len(res.Diagnostics) > 0 {
		p.log.Warn("server returned diagnostics", zap.Strings("diagnostics", res.Diagnostics))
		return nil
	}

	records := res.Records
	if len(records) > p.cfg.MaxResults {
		records = records[:p.cfg.MaxResults]
	}
	m := marcMapper{catalogID: p.cfg.CatalogID, log: p.log}
	var out []*entity.Entity
	for i := range records {
		if w := m.work(&records[i]); w != nil {
			out = append(out, w)
		}
	}
	return out
}
