// Package sync classifies provider capabilities against the last persisted
// cache projection.
package sync

import (
	"fmt"

	"dotagents/internal/config"
)

// Status is the drift classification of one (category, name, feature) triple.
type Status string

const (
	StatusNew       Status = "new"
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
)

// Entry is the classification of a single triple.
type Entry struct {
	Category config.Category `json:"category"`
	Name     string          `json:"name"`
	Feature  string          `json:"feature"`
	Status   Status          `json:"status"`
	Previous string          `json:"previousHash,omitempty"`
	Current  string          `json:"currentHash,omitempty"`
}

// Key identifies the triple as category/name/feature.
func (e Entry) Key() string {
	return fmt.Sprintf("%s/%s/%s", e.Category, e.Name, e.Feature)
}

// Report is the drift report for one effective configuration.
type Report struct {
	Entries   []Entry `json:"entries"`
	New       int     `json:"new"`
	Changed   int     `json:"changed"`
	Unchanged int     `json:"unchanged"`
}

// Dirty reports whether any triple needs to be written.
func (r Report) Dirty() bool {
	return r.New > 0 || r.Changed > 0
}

// Lookup returns the entry for a triple.
func (r Report) Lookup(category config.Category, name, feature string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Category == category && e.Name == name && e.Feature == feature {
			return e, true
		}
	}
	return Entry{}, false
}

// Diff classifies every capability present in the effective providers. The
// hashes on effective are expected to be freshly computed by the caller.
// A triple without a recorded hash in previous is New; differing hash strings
// are Changed; everything else is Unchanged. Entries are ordered by category,
// name, then feature.
func Diff(effective config.AppConfig, previous config.CacheConfig) Report {
	var report Report
	for _, category := range config.Categories {
		providers := effective.Providers.Get(category)
		for _, name := range sortedNames(providers) {
			ability := providers[name]
			for _, feature := range config.KnownFeatures {
				settings := ability.Capability(feature)
				if settings == nil {
					continue
				}
				entry := Entry{
					Category: category,
					Name:     name,
					Feature:  feature,
					Current:  settings.HashValue(),
				}
				if previous.IsEmpty() || !previous.HasValidHash(category, name, feature) {
					entry.Status = StatusNew
					report.New++
					report.Entries = append(report.Entries, entry)
					continue
				}
				prior, _ := previous.Providers.Lookup(category, name, feature)
				entry.Previous = prior.HashValue()
				if entry.Previous != entry.Current {
					entry.Status = StatusChanged
					report.Changed++
				} else {
					entry.Status = StatusUnchanged
					report.Unchanged++
				}
				report.Entries = append(report.Entries, entry)
			}
		}
	}
	return report
}
