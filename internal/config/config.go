// Package config loads the catalog federation settings: the catalogs users
// search, the external providers used for enrichment, presets shared by both
// and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"catalogsearch/internal/knowledge"
	"catalogsearch/internal/provider"
)

const DefaultPath = "config/catalogs.yaml"

// Catalog is a searchable library catalog. ExternalLink is the public OPAC
// page, shown to users next to results from this catalog.
type Catalog struct {
	ID           string          `yaml:"id" validate:"required"`
	Name         string          `yaml:"name"`
	ShortName    string          `yaml:"short_name"`
	ExternalLink string          `yaml:"external_link" validate:"omitempty,url"`
	Provider     provider.Config `yaml:"provider"`
}

type HTTP struct {
	UserAgent  string `yaml:"user_agent"`
	RPS        int    `yaml:"rps" validate:"min=0"`
	MaxRetries int    `yaml:"max_retries" validate:"min=0"`
	PoolSize   int    `yaml:"pool_size" validate:"min=0"`
}

type Config struct {
	AppName           string                     `yaml:"app_name"`
	Catalogs          []Catalog                  `yaml:"catalogs" validate:"unique=ID,dive"`
	ExternalProviders []provider.Config          `yaml:"external_providers" validate:"dive"`
	Presets           map[string]provider.Config `yaml:"presets"`
	Wikidata          knowledge.Config           `yaml:"wikidata"`
	HTTP              HTTP                       `yaml:"http"`

	Addr        string `yaml:"-"`
	DatabaseDSN string `yaml:"-"`
	LogLevel    string `yaml:"-"`
	Environment string `yaml:"-"`
}

// BuiltinPresets are available without being declared in the file.
var BuiltinPresets = map[string]provider.Config{
	"googlebooks": {Type: "googlebooks"},
	"openlibrary": {Type: "openlibrary"},
}

// urlTypes are the provider types that have no public default endpoint.
var urlTypes = map[string]bool{"sru": true, "z3950": true, "innopac": true}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(provider.Config)
		if urlTypes[strings.ToLower(c.Type)] && c.URL == "" {
			sl.ReportError(c.URL, "URL", "URL", "required_for_type", c.Type)
		}
	}, provider.Config{})
	return v
}

func Default() *Config {
	return &Config{
		AppName: "catalogsearch",
		HTTP: HTTP{
			UserAgent:  "catalogsearch",
			MaxRetries: 2,
		},
	}
}

// LoadEnv reads .env and .env.local without overriding variables already
// set in the environment.
func LoadEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Path is the config file location, CATALOGSEARCH_CONFIG or DefaultPath.
func Path() string {
	if v := os.Getenv("CATALOGSEARCH_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML file at path and the process environment. ${VAR}
// references in the file are expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
			return nil, ce
		}
		return nil, &Error{Path: path, Err: err}
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse decodes a YAML document, resolves presets and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, validationError(err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = getEnv("APP_ADDR", ":8080")
	c.DatabaseDSN = os.Getenv("DB_DSN")
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.Environment = getEnv("APP_ENV", "development")
}

// resolve applies presets and tags local providers with their catalog.
func (c *Config) resolve() error {
	for i := range c.Catalogs {
		cat := &c.Catalogs[i]
		field := fmt.Sprintf("catalogs[%d].provider", i)
		if err := c.applyPreset(&cat.Provider, field); err != nil {
			return err
		}
		cat.Provider.CatalogID = cat.ID
		if cat.Name == "" {
			cat.Name = cat.ID
		}
		if cat.ShortName == "" {
			cat.ShortName = cat.Name
		}
	}
	for i := range c.ExternalProviders {
		field := fmt.Sprintf("external_providers[%d]", i)
		if err := c.applyPreset(&c.ExternalProviders[i], field); err != nil {
			return err
		}
		c.ExternalProviders[i].CatalogID = ""
	}

	registry := provider.DefaultRegistry(nil)
	check := func(p provider.Config, field string) error {
		if p.Type != "" && !registry.Has(p.Type) {
			return &Error{Field: field + ".type", Err: fmt.Errorf("%w: %q", provider.ErrUnknownType, p.Type)}
		}
		return nil
	}
	for i, cat := range c.Catalogs {
		if err := check(cat.Provider, fmt.Sprintf("catalogs[%d].provider", i)); err != nil {
			return err
		}
	}
	for i, p := range c.ExternalProviders {
		if err := check(p, fmt.Sprintf("external_providers[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyPreset(p *provider.Config, field string) error {
	if p.Preset == "" {
		return nil
	}
	preset, ok := c.Presets[p.Preset]
	if !ok {
		preset, ok = BuiltinPresets[p.Preset]
	}
	if !ok {
		return &Error{Field: field + ".preset", Err: fmt.Errorf("%w: %q", ErrUnknownPreset, p.Preset)}
	}
	p.Inherit(preset)
	return nil
}

// Catalog returns the catalog with the given ID.
func (c *Config) Catalog(id string) (Catalog, bool) {
	for _, cat := range c.Catalogs {
		if cat.ID == id {
			return cat, true
		}
	}
	return Catalog{}, false
}

// LocalProviders returns the provider configs of the catalogs in ids, in
// file order. Empty ids selects every catalog.
func (c *Config) LocalProviders(ids []string) []provider.Config {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			want[id] = true
		}
	}
	var out []provider.Config
	for _, cat := range c.Catalogs {
		if len(want) == 0 || want[cat.ID] {
			out = append(out, cat.Provider)
		}
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		return &Error{Field: fe.Namespace(), Err: fmt.Errorf("%w: failed %s", ErrInvalid, msg)}
	}
	return &Error{Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
