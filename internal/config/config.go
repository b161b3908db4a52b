package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ParseGlobal decodes a global document. A missing feature list decodes as
// an empty list.
func ParseGlobal(source string, data []byte) (GlobalConfig, error) {
	var cfg GlobalConfig
	if err := decode(source, data, &cfg); err != nil {
		return GlobalConfig{}, err
	}
	if cfg.Features == nil {
		cfg.Features = []string{}
	}
	if err := keepProviderTables(source, data, &cfg.Providers); err != nil {
		return GlobalConfig{}, err
	}
	return cfg, nil
}

// ParseLocal decodes a local document.
func ParseLocal(source string, data []byte) (LocalConfig, error) {
	var cfg LocalConfig
	if err := decode(source, data, &cfg); err != nil {
		return LocalConfig{}, err
	}
	if err := keepProviderTables(source, data, &cfg.Providers); err != nil {
		return LocalConfig{}, err
	}
	return cfg, nil
}

// ParseApp decodes an effective configuration, filling defaults for
// anything the text leaves out.
func ParseApp(source string, data []byte) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := decode(source, data, &cfg); err != nil {
		return AppConfig{}, err
	}
	providers := &cfg.Providers
	if err := keepProviderTables(source, data, &providers); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// ParseCache decodes a cache projection. An empty document is an empty cache.
func ParseCache(source string, data []byte) (CacheConfig, error) {
	cfg := DefaultCacheConfig()
	if err := decode(source, data, &cfg); err != nil {
		return CacheConfig{}, err
	}
	providers := &cfg.Providers
	if err := keepProviderTables(source, data, &providers); err != nil {
		return CacheConfig{}, err
	}
	return cfg, nil
}

// Marshal encodes any of the document types as TOML. Provider categories
// configured as empty are written as empty tables so they survive a round
// trip.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("DOC_CONFIG_ENCODE: %w", err)
	}
	buf.WriteString(emptyProviderTables(documentProviders(v)))
	return buf.Bytes(), nil
}

func documentProviders(v any) *Providers {
	switch d := v.(type) {
	case GlobalConfig:
		return d.Providers
	case *GlobalConfig:
		return d.Providers
	case LocalConfig:
		return d.Providers
	case *LocalConfig:
		return d.Providers
	case AppConfig:
		return &d.Providers
	case *AppConfig:
		return &d.Providers
	case CacheConfig:
		return &d.Providers
	case *CacheConfig:
		return &d.Providers
	}
	return nil
}

// emptyProviderTables renders a header for every category of p that is set
// but has no entries. The encoder omits those.
func emptyProviderTables(p *Providers) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range Categories {
		if m := p.Get(c); m != nil && len(m) == 0 {
			fmt.Fprintf(&b, "\n[providers.%s]\n", c)
		}
	}
	return b.String()
}

// keepProviderTables restores the provider categories that data writes as
// empty tables. The decoder leaves their maps nil, which would read as never
// configured.
func keepProviderTables(source string, data []byte, providers **Providers) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return &DocumentError{Source: source, Err: err}
	}
	tables, ok := raw["providers"].(map[string]any)
	if !ok {
		return nil
	}
	if *providers == nil {
		*providers = &Providers{}
	}
	for _, c := range Categories {
		if _, ok := tables[string(c)]; ok {
			(*providers).ensure(c)
		}
	}
	return nil
}

func decode(source string, data []byte, v any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &DocumentError{Source: source, Err: err}
	}
	return nil
}
