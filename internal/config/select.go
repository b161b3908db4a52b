package config

import "sort"

// HasFeature reports whether feature is globally enabled.
func (c AppConfig) HasFeature(feature string) bool {
	for _, f := range c.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// FeatureProviders returns the providers that take part in feature, keyed by
// provider name. A provider is included when the feature is enabled, or when
// its capability is explicitly disabled so that the override can be reported.
// Categories are flattened ide, cli, custom; a later category wins on a
// name collision.
func (c AppConfig) FeatureProviders(feature string) map[string]CapabilitySettings {
	out := map[string]CapabilitySettings{}
	for _, t := range c.FeatureTargets(feature) {
		out[t.Name] = t.Settings
	}
	return out
}

// FeatureTarget is one selected (category, provider) pair for a feature.
type FeatureTarget struct {
	Category Category           `json:"category"`
	Name     string             `json:"name"`
	Settings CapabilitySettings `json:"settings"`
}

// FeatureTargets applies the FeatureProviders selection rule but keeps the
// category. Results are ordered by category, then name.
func (c AppConfig) FeatureTargets(feature string) []FeatureTarget {
	enabled := c.HasFeature(feature)
	var out []FeatureTarget
	for _, cat := range Categories {
		providers := c.Providers.Get(cat)
		names := make([]string, 0, len(providers))
		for name := range providers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			settings := providers[name].Capability(feature)
			if settings == nil {
				continue
			}
			if enabled || settings.IsDisabled() {
				out = append(out, FeatureTarget{Category: cat, Name: name, Settings: *settings.Clone()})
			}
		}
	}
	return out
}
