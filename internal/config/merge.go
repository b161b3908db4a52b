package config

import "sort"

// Merge rules, shared by every level below:
//   - scalars: the override wins when set, otherwise the base is kept
//   - string maps: union, the override wins on key collision
//   - target name sets and feature lists: replaced wholesale when the
//     override sets them (even to empty), never unioned
//   - provider maps: union by name, colliding entries merged recursively

// MergeLayers combines two layers field by field. Neither input is modified
// and the result shares no memory with them.
func MergeLayers(base, override LocalConfig) LocalConfig {
	return LocalConfig{
		Schema:    orElse(override.Schema, base.Schema),
		Features:  cloneNames(orElse(override.Features, base.Features)),
		Targets:   mergeTargets(base.Targets, override.Targets),
		Providers: mergeProviders(base.Providers, override.Providers),
		Variables: MergeVariables(base.Variables, override.Variables),
	}
}

// FromLayers produces the effective configuration from the two documents.
func FromLayers(global GlobalConfig, local LocalConfig) AppConfig {
	return finalize(MergeLayers(global.Layer(), local))
}

// Layer converts the global document into the generic layer shape. The
// feature list is always present on a global layer.
func (g GlobalConfig) Layer() LocalConfig {
	features := append([]string{}, g.Features...)
	return LocalConfig{
		Schema:    clonePtr(g.Schema),
		Features:  &features,
		Targets:   g.Targets.Clone(),
		Providers: g.Providers.Clone(),
		Variables: cloneStrings(g.Variables),
	}
}

func finalize(layer LocalConfig) AppConfig {
	cfg := DefaultAppConfig()
	if layer.Schema != nil {
		cfg.Schema = *layer.Schema
	}
	if layer.Features != nil {
		cfg.Features = uniqueSorted(*layer.Features)
	}
	if layer.Targets != nil {
		for _, c := range Categories {
			if names := layer.Targets.Get(c); names != nil {
				cfg.Targets.Set(c, uniqueSorted(*names))
			}
		}
	}
	if layer.Providers != nil {
		cfg.Providers = *layer.Providers
	}
	cfg.Variables = layer.Variables
	return cfg
}

// Merge replaces each category of t that other sets.
func (t Targets) Merge(other Targets) Targets {
	return Targets{
		IDE:    cloneNames(orElse(other.IDE, t.IDE)),
		CLI:    cloneNames(orElse(other.CLI, t.CLI)),
		Custom: cloneNames(orElse(other.Custom, t.Custom)),
	}
}

// Merge unions each category of p with other.
func (p Providers) Merge(other Providers) Providers {
	return Providers{
		IDE:    mergeProviderMaps(p.IDE, other.IDE),
		CLI:    mergeProviderMaps(p.CLI, other.CLI),
		Custom: mergeProviderMaps(p.Custom, other.Custom),
	}
}

// Merge combines the capability settings of two provider entries.
func (a AbilitySettings) Merge(other AbilitySettings) AbilitySettings {
	return AbilitySettings{
		MCP:          mergeCapability(a.MCP, other.MCP),
		Instructions: mergeCapability(a.Instructions, other.Instructions),
		Commands:     mergeCapability(a.Commands, other.Commands),
	}
}

// Merge applies other on top of s.
func (s CapabilitySettings) Merge(other CapabilitySettings) CapabilitySettings {
	return CapabilitySettings{
		Template:  orElse(other.Template, s.Template),
		Target:    orElse(other.Target, s.Target),
		Disabled:  orElse(other.Disabled, s.Disabled),
		Variables: MergeVariables(s.Variables, other.Variables),
		Hash:      orElse(other.Hash, s.Hash),
	}
}

// MergeVariables unions two string maps; override wins on collision. The
// result is nil only when both inputs are nil.
func MergeVariables(base, override map[string]string) map[string]string {
	if base == nil && override == nil {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergeTargets(base, override *Targets) *Targets {
	switch {
	case base == nil && override == nil:
		return nil
	case base == nil:
		return override.Clone()
	case override == nil:
		return base.Clone()
	}
	merged := base.Merge(*override)
	return &merged
}

func mergeProviders(base, override *Providers) *Providers {
	switch {
	case base == nil && override == nil:
		return nil
	case base == nil:
		return override.Clone()
	case override == nil:
		return base.Clone()
	}
	merged := base.Merge(*override)
	return &merged
}

func mergeProviderMaps(base, override map[string]AbilitySettings) map[string]AbilitySettings {
	if base == nil && override == nil {
		return nil
	}
	out := make(map[string]AbilitySettings, len(base)+len(override))
	for name, settings := range base {
		out[name] = settings.Clone()
	}
	for name, settings := range override {
		if existing, ok := out[name]; ok {
			out[name] = existing.Merge(settings)
			continue
		}
		out[name] = settings.Clone()
	}
	return out
}

func mergeCapability(base, override *CapabilitySettings) *CapabilitySettings {
	switch {
	case base == nil && override == nil:
		return nil
	case base == nil:
		return override.Clone()
	case override == nil:
		return base.Clone()
	}
	merged := base.Merge(*override)
	return &merged
}

// Clone returns a deep copy of t; nil stays nil.
func (t *Targets) Clone() *Targets {
	if t == nil {
		return nil
	}
	return &Targets{IDE: cloneNames(t.IDE), CLI: cloneNames(t.CLI), Custom: cloneNames(t.Custom)}
}

// Clone returns a deep copy of p; nil stays nil.
func (p *Providers) Clone() *Providers {
	if p == nil {
		return nil
	}
	return &Providers{
		IDE:    cloneProviderMap(p.IDE),
		CLI:    cloneProviderMap(p.CLI),
		Custom: cloneProviderMap(p.Custom),
	}
}

// Clone returns a deep copy of a.
func (a AbilitySettings) Clone() AbilitySettings {
	return AbilitySettings{
		MCP:          a.MCP.Clone(),
		Instructions: a.Instructions.Clone(),
		Commands:     a.Commands.Clone(),
	}
}

// Clone returns a deep copy of s; nil stays nil.
func (s *CapabilitySettings) Clone() *CapabilitySettings {
	if s == nil {
		return nil
	}
	return &CapabilitySettings{
		Template:  clonePtr(s.Template),
		Target:    clonePtr(s.Target),
		Disabled:  clonePtr(s.Disabled),
		Variables: cloneStrings(s.Variables),
		Hash:      clonePtr(s.Hash),
	}
}

func orElse[T any](override, base *T) *T {
	if override != nil {
		return clonePtr(override)
	}
	return clonePtr(base)
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneNames(v *[]string) *[]string {
	if v == nil {
		return nil
	}
	out := append([]string{}, (*v)...)
	return &out
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneProviderMap(m map[string]AbilitySettings) map[string]AbilitySettings {
	if m == nil {
		return nil
	}
	out := make(map[string]AbilitySettings, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
