package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dotagents/internal/audit"
	"dotagents/internal/config"
	"dotagents/internal/scaffold"
	"dotagents/internal/store"
)

func seedWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if _, err := scaffold.Init(root, scaffold.Options{}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return root
}

func findCode(report Report, code string) (Finding, bool) {
	for _, f := range report.Findings {
		if f.Code == code {
			return f, true
		}
	}
	return Finding{}, false
}

func TestDoctorMissingWorkspace(t *testing.T) {
	svc := &Service{WorkspaceRoot: t.TempDir(), Home: t.TempDir()}
	report := svc.Run(context.Background())
	if report.Healthy {
		t.Fatalf("expected unhealthy report")
	}
	if _, ok := findCode(report, "DOC_WORKSPACE_MISSING"); !ok {
		t.Fatalf("expected DOC_WORKSPACE_MISSING, got %+v", report.Findings)
	}
}

func TestDoctorReportsDetectedUntargetedTool(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".cursor"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	svc := &Service{WorkspaceRoot: seedWorkspace(t), Home: home}
	report := svc.Run(context.Background())
	if !report.Healthy {
		t.Fatalf("expected healthy report, got %+v", report.Findings)
	}
	if len(report.DetectedTools) != 1 || report.DetectedTools[0] != "cursor" {
		t.Fatalf("unexpected detected tools %v", report.DetectedTools)
	}
	if _, ok := findCode(report, "ADP_DETECTED_UNTARGETED"); !ok {
		t.Fatalf("expected ADP_DETECTED_UNTARGETED warning, got %+v", report.Findings)
	}
	if f, ok := findCode(report, "DOC_CACHE_EMPTY"); !ok || f.Level != LevelInfo {
		t.Fatalf("expected DOC_CACHE_EMPTY info, got %+v", report.Findings)
	}
}

func TestDoctorWarnsAboutTargetsWithoutProviders(t *testing.T) {
	svc := &Service{WorkspaceRoot: seedWorkspace(t), Home: t.TempDir()}
	report := svc.Run(context.Background())
	f, ok := findCode(report, "DOC_TARGET_NO_PROVIDER")
	if !ok {
		t.Fatalf("expected DOC_TARGET_NO_PROVIDER, got %+v", report.Findings)
	}
	if f.Level != LevelWarn {
		t.Fatalf("expected warning level, got %q", f.Level)
	}
}

func TestDoctorInvalidConfig(t *testing.T) {
	root := seedWorkspace(t)
	if err := os.WriteFile(config.GlobalConfigPath(root), []byte("features = [\"bogus\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	report := (&Service{WorkspaceRoot: root, Home: t.TempDir()}).Run(context.Background())
	if report.Healthy {
		t.Fatalf("expected unhealthy report")
	}
	if _, ok := findCode(report, "DOC_CONFIG_INVALID"); !ok {
		t.Fatalf("expected DOC_CONFIG_INVALID, got %+v", report.Findings)
	}
}

func TestDoctorInvalidCache(t *testing.T) {
	root := seedWorkspace(t)
	cacheRoot := config.CacheRoot(root)
	if err := os.WriteFile(store.CachePath(cacheRoot), []byte("not = [toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	report := (&Service{WorkspaceRoot: root, Home: t.TempDir()}).Run(context.Background())
	if report.Healthy {
		t.Fatalf("expected unhealthy report")
	}
	if _, ok := findCode(report, "DOC_CACHE_INVALID"); !ok {
		t.Fatalf("expected DOC_CACHE_INVALID, got %+v", report.Findings)
	}
}

func TestDoctorReportsFailedLastRun(t *testing.T) {
	root := seedWorkspace(t)
	path := store.AuditPath(config.CacheRoot(root))
	first := audit.New(path)
	_ = first.Log(audit.Event{Operation: "deploy", Phase: "render", Status: audit.StatusError, Message: "old failure"})
	second := audit.New(path)
	_ = second.Log(audit.Event{Operation: "deploy", Phase: "start", Status: audit.StatusOK})
	_ = second.Log(audit.Event{Operation: "deploy", Phase: "write", Status: audit.StatusError, Message: "disk full"})

	report := (&Service{WorkspaceRoot: root, Home: t.TempDir()}).Run(context.Background())
	if report.LastRunID != second.RunID() {
		t.Fatalf("last run = %q, want %q", report.LastRunID, second.RunID())
	}
	f, ok := findCode(report, "DOC_LAST_RUN_FAILED")
	if !ok || f.Message != "write: disk full" {
		t.Fatalf("expected failure of the latest run, got %+v", report.Findings)
	}
}

func TestDoctorWarnsAboutMalformedCacheHash(t *testing.T) {
	root := seedWorkspace(t)
	cache := config.DefaultCacheConfig()
	cache.Providers.Put(config.CategoryCustom, "opencode", config.AbilitySettings{
		MCP: &config.CapabilitySettings{Hash: config.String("md5:abc")},
	})
	if err := store.SaveCache(config.CacheRoot(root), cache); err != nil {
		t.Fatal(err)
	}
	report := (&Service{WorkspaceRoot: root, Home: t.TempDir()}).Run(context.Background())
	f, ok := findCode(report, "DOC_CACHE_HASH")
	if !ok || f.Message != "custom/opencode/mcp has malformed hash md5:abc" {
		t.Fatalf("expected DOC_CACHE_HASH warning, got %+v", report.Findings)
	}
	if !report.Healthy {
		t.Fatalf("malformed hashes are warnings only")
	}
}
