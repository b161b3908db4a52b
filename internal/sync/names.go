package sync

import (
	"sort"

	"dotagents/internal/config"
)

func sortedNames(m map[string]config.AbilitySettings) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
