package config

// ToCache projects the effective configuration onto the fields that matter
// for drift detection.
func (c AppConfig) ToCache() CacheConfig {
	return CacheConfig{
		Schema:    c.Schema,
		Providers: *c.Providers.Clone(),
	}
}

// FromCache lifts a cache projection back into an effective configuration
// with no features, targets or variables.
func FromCache(cache CacheConfig) AppConfig {
	cfg := DefaultAppConfig()
	cfg.Schema = cache.Schema
	cfg.Providers = *cache.Providers.Clone()
	return cfg
}

// IsEmpty reports whether the projection holds no providers at all.
func (c CacheConfig) IsEmpty() bool {
	return len(c.Providers.IDE) == 0 && len(c.Providers.CLI) == 0 && len(c.Providers.Custom) == 0
}

// HasValidHash reports whether a non-empty hash is recorded for the triple.
func (c CacheConfig) HasValidHash(category Category, name, feature string) bool {
	settings, ok := c.Providers.Lookup(category, name, feature)
	return ok && settings.HashValue() != ""
}

// Merge applies the providers of other on top of c; other's schema wins when set.
func (c CacheConfig) Merge(other CacheConfig) CacheConfig {
	schema := c.Schema
	if other.Schema != "" {
		schema = other.Schema
	}
	return CacheConfig{Schema: schema, Providers: c.Providers.Merge(other.Providers)}
}

// Lookup returns the capability settings stored for a triple.
func (p Providers) Lookup(category Category, name, feature string) (CapabilitySettings, bool) {
	ability, ok := p.Get(category)[name]
	if !ok {
		return CapabilitySettings{}, false
	}
	settings := ability.Capability(feature)
	if settings == nil {
		return CapabilitySettings{}, false
	}
	return *settings, true
}

// SetHash records hash on an existing capability entry. It returns false when
// the triple does not exist.
func (p *Providers) SetHash(category Category, name, feature, hash string) bool {
	ability, ok := p.Get(category)[name]
	if !ok {
		return false
	}
	settings := ability.Capability(feature)
	if settings == nil {
		return false
	}
	updated := settings.Clone()
	updated.Hash = String(hash)
	ability.SetCapability(feature, updated)
	p.Put(category, name, ability)
	return true
}
