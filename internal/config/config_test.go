package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const globalDoc = `
schema = "https://example.test/config.schema.json"
features = ["commands", "mcp"]

[targets]
ide = ["vscode"]
custom = []

[providers.ide.vscode.mcp]
template = "templates/vscode.json"
target = "/work/.vscode/mcp.json"

[providers.cli.gemini.commands]
disabled = true

[providers.cli.gemini.commands.variables]
format = "toml"

[variables]
team = "core"
`

func TestParseGlobalRoundTrip(t *testing.T) {
	cfg, err := ParseGlobal("config.toml", []byte(globalDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Targets.State(CategoryCustom) != SetEmpty {
		t.Fatalf("custom should be explicitly empty")
	}
	if cfg.Targets.State(CategoryCLI) != SetUnset {
		t.Fatalf("cli should be unset")
	}
	if !cfg.Providers.CLI["gemini"].Commands.IsDisabled() {
		t.Fatalf("gemini commands should be disabled")
	}

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := ParseGlobal("config.toml", data)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(cfg, again) {
		t.Fatalf("round trip mismatch:\nfirst  %+v\nsecond %+v", cfg, again)
	}
	if again.Targets.State(CategoryCustom) != SetEmpty || again.Targets.State(CategoryCLI) != SetUnset {
		t.Fatalf("target states not preserved:\n%s", data)
	}
}

func TestEmptyProviderTableRoundTrip(t *testing.T) {
	doc := "features = []\n\n[targets]\ncustom = [\"foo\"]\n\n[providers.custom]\n"
	cfg, err := ParseGlobal("config.toml", []byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Providers == nil || cfg.Providers.Custom == nil || len(cfg.Providers.Custom) != 0 {
		t.Fatalf("custom providers should be configured and empty, got %+v", cfg.Providers)
	}
	if cfg.Providers.IDE != nil || cfg.Providers.CLI != nil {
		t.Fatalf("unwritten categories should stay unset, got %+v", cfg.Providers)
	}

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "[providers.custom]") {
		t.Fatalf("empty custom table dropped:\n%s", data)
	}
	again, err := ParseGlobal("config.toml", data)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, data)
	}
	if !reflect.DeepEqual(cfg, again) {
		t.Fatalf("round trip mismatch:\nfirst  %+v\nsecond %+v", cfg, again)
	}
	if err := again.Validate(); !errors.Is(err, ErrUndeclaredCustomProvider) {
		t.Fatalf("expected undeclared custom provider after round trip, got %v", err)
	}

	app := DefaultAppConfig()
	app.Providers.Custom = map[string]AbilitySettings{}
	data, err = Marshal(app)
	if err != nil {
		t.Fatalf("marshal app: %v", err)
	}
	back, err := ParseApp("effective", data)
	if err != nil {
		t.Fatalf("parse app: %v\n%s", err, data)
	}
	if back.Providers.Custom == nil {
		t.Fatalf("app config lost empty custom table:\n%s", data)
	}
}

func TestParseLocalAbsentVersusEmpty(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want SetState
	}{
		{name: "absent", doc: ``, want: SetUnset},
		{name: "empty", doc: "features = []\n", want: SetEmpty},
		{name: "values", doc: "features = [\"mcp\"]\n", want: SetValues},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseLocal("local.config.toml", []byte(tt.doc))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			got := SetUnset
			if cfg.Features != nil {
				got = SetEmpty
				if len(*cfg.Features) > 0 {
					got = SetValues
				}
			}
			if got != tt.want {
				t.Fatalf("features state = %s, want %s", got, tt.want)
			}

			data, err := Marshal(cfg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			again, err := ParseLocal("local.config.toml", data)
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}
			if (again.Features == nil) != (cfg.Features == nil) {
				t.Fatalf("presence of features changed across round trip:\n%s", data)
			}
		})
	}
}

func TestParseGlobalMissingFeatures(t *testing.T) {
	cfg, err := ParseGlobal("config.toml", []byte(`schema = "x"`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Features == nil || len(cfg.Features) != 0 {
		t.Fatalf("features = %#v, want empty", cfg.Features)
	}
}

func TestParseCacheRoundTrip(t *testing.T) {
	cache := DefaultCacheConfig()
	cache.Providers.Put(CategoryCustom, "opencode", AbilitySettings{
		MCP: &CapabilitySettings{Target: String("/work/opencode.json"), Hash: String("sha256:abc")},
	})
	data, err := Marshal(cache)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ParseCache("cache.toml", data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(cache, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", cache, got)
	}

	empty, err := ParseCache("cache.toml", nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if !empty.IsEmpty() || empty.Schema != SchemaURL {
		t.Fatalf("empty document should decode to the default cache, got %+v", empty)
	}
}

func TestParseAppFillsDefaults(t *testing.T) {
	cfg, err := ParseApp("effective", []byte("features = [\"mcp\"]\n[targets]\ncli = [\"gemini\"]\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Schema != SchemaURL {
		t.Fatalf("schema = %q", cfg.Schema)
	}
	if cfg.Targets.State(CategoryIDE) != SetEmpty || cfg.Targets.State(CategoryCLI) != SetValues {
		t.Fatalf("unexpected targets %+v", cfg.Targets)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "syntax", doc: "features = [\"mcp\""},
		{name: "unknown field", doc: "featurez = []\n"},
		{name: "wrong type", doc: "features = \"mcp\"\n"},
		{name: "unknown capability", doc: "[providers.ide.vscode.skills]\ntemplate = \"x\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGlobal("config.toml", []byte(tt.doc))
			var derr *DocumentError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DocumentError, got %v", err)
			}
			if derr.Source != "config.toml" || !strings.HasPrefix(err.Error(), "DOC_CONFIG_PARSE") {
				t.Fatalf("unexpected error %q", err.Error())
			}
		})
	}
}

func TestFindWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, RootDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	t.Run("from root", func(t *testing.T) {
		got, ok := FindWorkspaceRoot(root)
		if !ok || got != root {
			t.Fatalf("got (%q, %v), want (%q, true)", got, ok, root)
		}
	})
	t.Run("from nested", func(t *testing.T) {
		got, ok := FindWorkspaceRoot(nested)
		if !ok || got != root {
			t.Fatalf("got (%q, %v), want (%q, true)", got, ok, root)
		}
	})
	t.Run("file named like the marker is ignored", func(t *testing.T) {
		other := t.TempDir()
		if err := os.WriteFile(filepath.Join(other, RootDirName), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if got, ok := FindWorkspaceRoot(other); ok {
			t.Fatalf("expected not found, got %q", got)
		}
	})
}

func TestPaths(t *testing.T) {
	root := filepath.Join("work", "repo")
	if got := GlobalConfigPath(root); got != filepath.Join(root, ".dotagents", "config.toml") {
		t.Fatalf("GlobalConfigPath = %q", got)
	}
	if got := LocalConfigPath(root); got != filepath.Join(root, ".dotagents", "local.config.toml") {
		t.Fatalf("LocalConfigPath = %q", got)
	}
	if got := CacheRoot(root); got != filepath.Join(root, ".dotagents", "cache") {
		t.Fatalf("CacheRoot = %q", got)
	}
}

func TestUserConfigDirPrefersXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := UserConfigDir()
	if err != nil || got != "/tmp/xdg" {
		t.Fatalf("got (%q, %v)", got, err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := ExpandPath("~/agents")
	if err != nil || got != filepath.Join(home, "agents") {
		t.Fatalf("got (%q, %v)", got, err)
	}
	if _, err := ExpandPath(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if got, _ := ExpandPath("/abs"); got != "/abs" {
		t.Fatalf("absolute path changed: %q", got)
	}
}
