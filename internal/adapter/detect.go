package adapter

import (
	"os"
	"path/filepath"

	"dotagents/internal/config"
)

type Detection struct {
	Name     string          `json:"name"`
	Category config.Category `json:"category"`
	Path     string          `json:"path"`
	Reason   string          `json:"reason"`
}

// DetectAvailable reports the catalogued tools whose state directory exists
// under the user's home directory.
func DetectAvailable() []Detection {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return DetectIn(home)
}

// DetectIn is DetectAvailable against an explicit home directory.
func DetectIn(home string) []Detection {
	out := make([]Detection, 0, len(catalog))
	for _, t := range Catalog() {
		path := filepath.Join(home, filepath.FromSlash(t.HomeDir))
		if stat, err := os.Stat(path); err == nil && stat.IsDir() {
			out = append(out, Detection{Name: t.Name, Category: t.Category, Path: path, Reason: "default " + t.Name + " root exists"})
		}
	}
	return out
}

// Untargeted returns the detections not listed in targets.
func Untargeted(found []Detection, targets config.Targets) []Detection {
	var out []Detection
	for _, d := range found {
		if !targets.Has(d.Category, d.Name) {
			out = append(out, d)
		}
	}
	return out
}
