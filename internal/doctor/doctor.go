package doctor

import (
	"context"
	"os"
	"sort"

	"dotagents/internal/adapter"
	"dotagents/internal/audit"
	"dotagents/internal/config"
	"dotagents/internal/fsutil"
	"dotagents/internal/resolver"
	"dotagents/internal/store"
	"dotagents/internal/templates"
)

// Finding levels.
const (
	LevelError = "error"
	LevelWarn  = "warn"
	LevelInfo  = "info"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy       bool      `json:"healthy"`
	Findings      []Finding `json:"findings"`
	DetectedTools []string  `json:"detectedTools,omitempty"`
	LastRunID     string    `json:"lastRunId,omitempty"`
}

type Service struct {
	WorkspaceRoot string
	// Home overrides the directory tools are detected in. Empty means the
	// user's home directory.
	Home string
}

func (s *Service) Run(ctx context.Context) Report {
	findings := []Finding{}
	report := Report{}

	var detected []adapter.Detection
	if s.Home != "" {
		detected = adapter.DetectIn(s.Home)
	} else {
		detected = adapter.DetectAvailable()
	}
	for _, d := range detected {
		report.DetectedTools = append(report.DetectedTools, d.Name)
	}

	appDir := config.ApplicationDir(s.WorkspaceRoot)
	if stat, err := os.Stat(appDir); err != nil || !stat.IsDir() {
		findings = append(findings, Finding{Code: "DOC_WORKSPACE_MISSING", Level: LevelError, Message: appDir + " not found; run init first"})
		return finish(report, findings)
	}

	tpl, err := templates.ForWorkspace(s.WorkspaceRoot)
	var effective *config.AppConfig
	if err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_INVALID", Level: LevelError, Message: err.Error()})
	} else if res, err := resolver.Resolve(tpl); err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_INVALID", Level: LevelError, Message: err.Error()})
	} else {
		effective = &res.Effective
	}

	cacheRoot := config.CacheRoot(s.WorkspaceRoot)
	if cache, err := store.LoadCache(cacheRoot); err != nil {
		findings = append(findings, Finding{Code: "DOC_CACHE_INVALID", Level: LevelError, Message: err.Error()})
	} else if cache.IsEmpty() {
		findings = append(findings, Finding{Code: "DOC_CACHE_EMPTY", Level: LevelInfo, Message: "no deploy recorded yet"})
	} else {
		findings = append(findings, cacheFindings(cache)...)
	}

	if effective != nil {
		findings = append(findings, targetFindings(*effective)...)
		for _, d := range adapter.Untargeted(detected, effective.Targets) {
			findings = append(findings, Finding{
				Code:    "ADP_DETECTED_UNTARGETED",
				Level:   LevelWarn,
				Message: d.Name + " detected at " + d.Path + " but not listed in " + string(d.Category) + " targets",
			})
		}
	}

	if ctx.Err() != nil {
		findings = append(findings, Finding{Code: "DOC_CANCELED", Level: LevelError, Message: ctx.Err().Error()})
		return finish(report, findings)
	}

	events, err := audit.Read(store.AuditPath(cacheRoot))
	if err != nil {
		findings = append(findings, Finding{Code: "DOC_AUDIT_INVALID", Level: LevelWarn, Message: err.Error()})
	} else if last := audit.LastRun(events); len(last) > 0 {
		report.LastRunID = last[0].RunID
		for _, ev := range last {
			if ev.Status == audit.StatusError {
				findings = append(findings, Finding{Code: "DOC_LAST_RUN_FAILED", Level: LevelWarn, Message: ev.Phase + ": " + ev.Message})
				break
			}
		}
	}
	return finish(report, findings)
}

// targetFindings warns about targets no provider entry can serve.
func targetFindings(effective config.AppConfig) []Finding {
	var out []Finding
	for _, c := range config.Categories {
		names := effective.Targets.Get(c)
		if names == nil {
			continue
		}
		providers := effective.Providers.Get(c)
		sorted := append([]string(nil), (*names)...)
		sort.Strings(sorted)
		for _, name := range sorted {
			if _, ok := providers[name]; ok {
				continue
			}
			out = append(out, Finding{
				Code:    "DOC_TARGET_NO_PROVIDER",
				Level:   LevelWarn,
				Message: string(c) + " target " + name + " has no provider settings; nothing will be deployed for it",
			})
		}
	}
	return out
}

// cacheFindings warns about recorded hashes that deploy never produces.
// Such entries are treated as changed on the next deploy.
func cacheFindings(cache config.CacheConfig) []Finding {
	var out []Finding
	for _, c := range config.Categories {
		providers := cache.Providers.Get(c)
		names := make([]string, 0, len(providers))
		for name := range providers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, feature := range config.KnownFeatures {
				settings := providers[name].Capability(feature)
				if settings == nil || settings.HashValue() == "" || fsutil.IsContentHash(settings.HashValue()) {
					continue
				}
				out = append(out, Finding{
					Code:    "DOC_CACHE_HASH",
					Level:   LevelWarn,
					Message: string(c) + "/" + name + "/" + feature + " has malformed hash " + settings.HashValue(),
				})
			}
		}
	}
	return out
}

func finish(report Report, findings []Finding) Report {
	report.Healthy = true
	for _, f := range findings {
		if f.Level == LevelError {
			report.Healthy = false
			break
		}
	}
	report.Findings = findings
	return report
}
