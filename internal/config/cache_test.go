package config

import (
	"reflect"
	"testing"
)

func TestToCacheProjection(t *testing.T) {
	cfg := selectionConfig()
	cfg.Variables = map[string]string{"k": "v"}
	cache := cfg.ToCache()
	if cache.Schema != cfg.Schema {
		t.Fatalf("schema = %q", cache.Schema)
	}
	if !reflect.DeepEqual(cache.Providers, cfg.Providers) {
		t.Fatalf("providers not carried over")
	}
	back := FromCache(cache)
	if len(back.Features) != 0 || back.Variables != nil {
		t.Fatalf("FromCache should not invent features or variables: %+v", back)
	}
	if !reflect.DeepEqual(back.Providers, cfg.Providers) {
		t.Fatalf("providers lost in FromCache")
	}
}

func TestCacheIsEmpty(t *testing.T) {
	if !DefaultCacheConfig().IsEmpty() {
		t.Fatalf("default cache should be empty")
	}
	cache := CacheConfig{Providers: Providers{Custom: map[string]AbilitySettings{}}}
	if !cache.IsEmpty() {
		t.Fatalf("empty category maps count as empty")
	}
	cache.Providers.Put(CategoryCustom, "opencode", AbilitySettings{})
	if cache.IsEmpty() {
		t.Fatalf("cache with a provider is not empty")
	}
}

func TestHasValidHash(t *testing.T) {
	cache := CacheConfig{Providers: Providers{CLI: map[string]AbilitySettings{
		"gemini": {
			MCP:      &CapabilitySettings{Hash: String("sha256:abc")},
			Commands: &CapabilitySettings{Hash: String("")},
		},
	}}}
	tests := []struct {
		category Category
		name     string
		feature  string
		want     bool
	}{
		{CategoryCLI, "gemini", FeatureMCP, true},
		{CategoryCLI, "gemini", FeatureCommands, false},
		{CategoryCLI, "gemini", FeatureInstructions, false},
		{CategoryIDE, "gemini", FeatureMCP, false},
		{CategoryCLI, "claude", FeatureMCP, false},
	}
	for _, tt := range tests {
		if got := cache.HasValidHash(tt.category, tt.name, tt.feature); got != tt.want {
			t.Fatalf("HasValidHash(%s, %s, %s) = %v, want %v", tt.category, tt.name, tt.feature, got, tt.want)
		}
	}
}

func TestCacheMergeMonotonic(t *testing.T) {
	previous := CacheConfig{Schema: "old", Providers: Providers{IDE: map[string]AbilitySettings{
		"vscode": {MCP: &CapabilitySettings{Hash: String("sha256:1")}},
		"zed":    {MCP: &CapabilitySettings{Hash: String("sha256:z")}},
	}}}
	fresh := CacheConfig{Schema: "new", Providers: Providers{IDE: map[string]AbilitySettings{
		"vscode": {MCP: &CapabilitySettings{Hash: String("sha256:2")}},
	}, CLI: map[string]AbilitySettings{
		"gemini": {Instructions: &CapabilitySettings{Hash: String("sha256:g")}},
	}}}

	merged := previous.Merge(fresh)
	if merged.Schema != "new" {
		t.Fatalf("schema = %q", merged.Schema)
	}
	for _, tc := range []struct {
		category Category
		name     string
		feature  string
	}{
		{CategoryIDE, "vscode", FeatureMCP},
		{CategoryIDE, "zed", FeatureMCP},
		{CategoryCLI, "gemini", FeatureInstructions},
	} {
		if !merged.HasValidHash(tc.category, tc.name, tc.feature) {
			t.Fatalf("lost hash for %s/%s/%s", tc.category, tc.name, tc.feature)
		}
	}
	got, _ := merged.Providers.Lookup(CategoryIDE, "vscode", FeatureMCP)
	if got.HashValue() != "sha256:2" {
		t.Fatalf("fresh hash should win, got %q", got.HashValue())
	}
	if merged := previous.Merge(CacheConfig{}); merged.Schema != "old" {
		t.Fatalf("empty schema should keep previous, got %q", merged.Schema)
	}
}

func TestSetHash(t *testing.T) {
	p := Providers{Custom: map[string]AbilitySettings{
		"opencode": {MCP: &CapabilitySettings{Template: String("t")}},
	}}
	if !p.SetHash(CategoryCustom, "opencode", FeatureMCP, "sha256:x") {
		t.Fatalf("SetHash returned false")
	}
	got, ok := p.Lookup(CategoryCustom, "opencode", FeatureMCP)
	if !ok || got.HashValue() != "sha256:x" || *got.Template != "t" {
		t.Fatalf("unexpected settings %+v", got)
	}
	if p.SetHash(CategoryCustom, "opencode", FeatureCommands, "sha256:y") {
		t.Fatalf("SetHash should fail for a missing capability")
	}
	if p.SetHash(CategoryIDE, "opencode", FeatureMCP, "sha256:y") {
		t.Fatalf("SetHash should fail for a missing provider")
	}
}
