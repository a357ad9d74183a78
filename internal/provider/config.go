package provider

import "time"

const (
	DefaultTimeout    = 3
	DefaultMaxResults = 20
	DefaultChunkSize  = 30
)

// Config configures one provider instance. Zero values mean "unset" so that
// presets can fill them in.
type Config struct {
	Type        string            `yaml:"type" json:"type" validate:"required"`
	Preset      string            `yaml:"preset" json:"preset,omitempty"`
	URL         string            `yaml:"url" json:"url,omitempty"`
	User        string            `yaml:"user" json:"-"`
	Group       string            `yaml:"group" json:"-"`
	Password    string            `yaml:"password" json:"-"`
	Key         string            `yaml:"key" json:"-"`
	Country     string            `yaml:"country" json:"country,omitempty"`
	Timeout     int               `yaml:"timeout" json:"timeout,omitempty" validate:"omitempty,min=1"`
	Syntax      string            `yaml:"syntax" json:"syntax,omitempty"`
	RPNCodes    map[string]int    `yaml:"rpn_codes" json:"rpn_codes,omitempty"`
	TextCodes   map[string]string `yaml:"text_codes" json:"text_codes,omitempty"`
	MaxResults  int               `yaml:"max_results" json:"max_results,omitempty" validate:"omitempty,min=1"`
	ChunkSize   int               `yaml:"chunk_size" json:"chunk_size,omitempty" validate:"omitempty,min=1"`
	GetHoldings *bool             `yaml:"get_holdings" json:"get_holdings,omitempty"`

	// CatalogID is the catalog the provider searches, empty for external
	// providers. Set by the config loader.
	CatalogID string `yaml:"-" json:"-"`
}

// Inherit fills every field left unset in c from p.
func (c *Config) Inherit(p Config) {
	fillString(&c.Type, p.Type)
	fillString(&c.URL, p.URL)
	fillString(&c.User, p.User)
	fillString(&c.Group, p.Group)
	fillString(&c.Password, p.Password)
	fillString(&c.Key, p.Key)
	fillString(&c.Country, p.Country)
	fillString(&c.Syntax, p.Syntax)
	fillInt(&c.Timeout, p.Timeout)
	fillInt(&c.MaxResults, p.MaxResults)
	fillInt(&c.ChunkSize, p.ChunkSize)
	if c.GetHoldings == nil && p.GetHoldings != nil {
		v := *p.GetHoldings
		c.GetHoldings = &v
	}
	if len(p.RPNCodes) > 0 {
		merged := make(map[string]int, len(p.RPNCodes)+len(c.RPNCodes))
		for k, v := range p.RPNCodes {
			merged[k] = v
		}
		for k, v := range c.RPNCodes {
			merged[k] = v
		}
		c.RPNCodes = merged
	}
	if len(p.TextCodes) > 0 {
		merged := make(map[string]string, len(p.TextCodes)+len(c.TextCodes))
		for k, v := range p.TextCodes {
			merged[k] = v
		}
		for k, v := range c.TextCodes {
			merged[k] = v
		}
		c.TextCodes = merged
	}
}

// ApplyDefaults sets the documented defaults and clamps minimums.
func (c *Config) ApplyDefaults() {
	if c.Timeout < 1 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxResults < 1 {
		c.MaxResults = DefaultMaxResults
	}
	if c.ChunkSize < 1 {
		c.ChunkSize = DefaultChunkSize
	}
}

func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout < 1 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// Holdings reports whether the provider should attach holdings.
func (c Config) Holdings() bool {
	return c.GetHoldings != nil && *c.GetHoldings
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func fillInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}
