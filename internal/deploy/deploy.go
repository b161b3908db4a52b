// Package deploy runs a deploy pass: every selected provider capability is
// rendered, hashed and compared with the previous cache projection; only new,
// changed or missing artifacts are written, and the cache is replaced at the
// end.
package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"dotagents/internal/audit"
	"dotagents/internal/config"
	"dotagents/internal/store"
	"dotagents/internal/sync"
	"dotagents/internal/templates"
)

// Action is what a deploy pass did, or would do, with one artifact.
type Action string

const (
	ActionWrite   Action = "write"
	ActionRestore Action = "restore"
	ActionNone    Action = "none"
	ActionSkip    Action = "skip"
)

// Reasons an artifact is skipped.
const (
	SkipDisabled   = "disabled"
	SkipNotTargets = "not listed in targets"
	SkipIncomplete = "template or target missing"
)

// Options tune a deploy pass.
type Options struct {
	// DryRun computes the report without touching the filesystem.
	DryRun bool
	// Diff attaches unified diffs for artifacts that would be written.
	Diff bool
}

// Artifact is the outcome for one (category, name, feature) triple.
type Artifact struct {
	Category config.Category `json:"category"`
	Name     string          `json:"name"`
	Feature  string          `json:"feature"`
	Target   string          `json:"target,omitempty"`
	Hash     string          `json:"hash,omitempty"`
	Status   sync.Status     `json:"status,omitempty"`
	Action   Action          `json:"action"`
	Reason   string          `json:"reason,omitempty"`
	Files    []string        `json:"files,omitempty"`
	Stale    []string        `json:"stale,omitempty"`
	Diff     string          `json:"diff,omitempty"`

	outputs []output
}

// Key identifies the artifact as category/name/feature.
func (a Artifact) Key() string {
	return fmt.Sprintf("%s/%s/%s", a.Category, a.Name, a.Feature)
}

// Report summarizes a deploy pass.
type Report struct {
	RunID     string             `json:"runId"`
	DryRun    bool               `json:"dryRun,omitempty"`
	Artifacts []Artifact         `json:"artifacts"`
	Drift     sync.Report        `json:"drift"`
	Effective config.AppConfig   `json:"-"`
	Cache     config.CacheConfig `json:"-"`
}

// Written returns the number of artifacts written or restored.
func (r Report) Written() int {
	n := 0
	for _, a := range r.Artifacts {
		if a.Action == ActionWrite || a.Action == ActionRestore {
			n++
		}
	}
	return n
}

// Skipped returns the artifacts that were not rendered.
func (r Report) Skipped() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Action == ActionSkip {
			out = append(out, a)
		}
	}
	return out
}

// Service deploys the artifacts of one workspace.
type Service struct {
	WorkspaceRoot string
	Templater     *templates.Templater
	Audit         *audit.Logger
	Logger        *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) event(phase, status, message string, fields map[string]string) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Log(audit.Event{Operation: "deploy", Phase: phase, Status: status, Message: message, Fields: fields}); err != nil {
		s.logger().Warn("audit log write failed", "error", err)
	}
}

// Run performs a deploy pass for the effective configuration.
func (s *Service) Run(ctx context.Context, effective config.AppConfig, opts Options) (Report, error) {
	if s.WorkspaceRoot == "" || s.Templater == nil {
		return Report{}, fmt.Errorf("DEPLOY_SETUP: deploy dependencies not configured")
	}
	log := s.logger()
	cacheRoot := config.CacheRoot(s.WorkspaceRoot)
	report := Report{RunID: s.Audit.RunID(), DryRun: opts.DryRun, Effective: effective}

	previous, err := store.LoadCache(cacheRoot)
	if err != nil {
		s.event("load", audit.StatusError, err.Error(), nil)
		return Report{}, err
	}
	s.event("start", audit.StatusOK, fmt.Sprintf("features=%d dryRun=%t", len(effective.Features), opts.DryRun), nil)

	r := newRenderer(s.WorkspaceRoot, s.Templater, effective)
	fresh := config.CacheConfig{Schema: effective.Schema}
	for _, feature := range config.KnownFeatures {
		for _, target := range effective.FeatureTargets(feature) {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
			artifact := Artifact{Category: target.Category, Name: target.Name, Feature: feature}
			if reason := skipReason(effective, target); reason != "" {
				artifact.Action = ActionSkip
				artifact.Reason = reason
				log.Info("skipping artifact", "artifact", artifact.Key(), "reason", reason)
				s.event("select", audit.StatusSkipped, reason, map[string]string{"artifact": artifact.Key()})
				report.Artifacts = append(report.Artifacts, artifact)
				continue
			}
			rendered, err := r.render(target, feature)
			if err != nil {
				s.event("render", audit.StatusError, err.Error(), map[string]string{"artifact": artifact.Key()})
				return Report{}, fmt.Errorf("DEPLOY_RENDER: %s: %w", artifact.Key(), err)
			}
			artifact.Target = rendered.target
			artifact.outputs = rendered.outputs
			artifact.Hash = rendered.hash()
			for _, o := range rendered.outputs {
				artifact.Files = append(artifact.Files, o.path)
			}
			artifact.Stale = rendered.stale
			if len(artifact.Stale) > 0 {
				log.Warn("stale files in target directory", "artifact", artifact.Key(), "files", artifact.Stale)
			}
			settings := target.Settings
			ability := fresh.Providers.Get(target.Category)[target.Name]
			ability.SetCapability(feature, settings.Clone())
			fresh.Providers.Put(target.Category, target.Name, ability)
			fresh.Providers.SetHash(target.Category, target.Name, feature, artifact.Hash)
			log.Debug("rendered artifact", "artifact", artifact.Key(), "hash", artifact.Hash)
			report.Artifacts = append(report.Artifacts, artifact)
		}
	}

	current := config.FromCache(fresh)
	report.Drift = sync.Diff(current, previous)

	var pending []output
	for i := range report.Artifacts {
		a := &report.Artifacts[i]
		if a.Action == ActionSkip {
			continue
		}
		entry, _ := report.Drift.Lookup(a.Category, a.Name, a.Feature)
		a.Status = entry.Status
		switch {
		case entry.Status != sync.StatusUnchanged:
			a.Action = ActionWrite
		case missingOnDisk(a.outputs):
			a.Action = ActionRestore
		default:
			a.Action = ActionNone
		}
		if a.Action == ActionNone {
			continue
		}
		if opts.Diff {
			diff, err := diffOutputs(a.outputs)
			if err != nil {
				return Report{}, fmt.Errorf("DEPLOY_DIFF: %s: %w", a.Key(), err)
			}
			a.Diff = diff
		}
		pending = append(pending, a.outputs...)
	}

	report.Cache = previous.Merge(fresh)
	report.Cache.Schema = effective.Schema
	if opts.DryRun {
		log.Info("dry run complete", "new", report.Drift.New, "changed", report.Drift.Changed, "unchanged", report.Drift.Unchanged)
		s.event("finish", audit.StatusOK, "dry run", nil)
		return report, nil
	}

	if err := writeAll(pending); err != nil {
		s.event("write", audit.StatusError, err.Error(), nil)
		return Report{}, err
	}
	for _, a := range report.Artifacts {
		if a.Action == ActionWrite || a.Action == ActionRestore {
			log.Info("deployed artifact", "artifact", a.Key(), "action", a.Action, "target", a.Target)
			s.event("write", audit.StatusOK, string(a.Action), map[string]string{"artifact": a.Key(), "target": a.Target, "hash": a.Hash})
		}
	}
	if err := store.SaveCache(cacheRoot, report.Cache); err != nil {
		s.event("cache", audit.StatusError, err.Error(), nil)
		return Report{}, err
	}
	s.event("finish", audit.StatusOK, fmt.Sprintf("written=%d", report.Written()), nil)
	return report, nil
}

// skipReason returns why a selected target is not rendered, or "".
func skipReason(effective config.AppConfig, target config.FeatureTarget) string {
	switch {
	case target.Settings.IsDisabled():
		return SkipDisabled
	case !effective.Targets.Has(target.Category, target.Name):
		return SkipNotTargets
	case target.Settings.Template == nil || target.Settings.Target == nil:
		return SkipIncomplete
	}
	return ""
}
