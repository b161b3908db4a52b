// Package adapter knows the agent tools dotagents can deploy to and how to
// detect which of them are installed.
package adapter

import (
	"sort"

	"dotagents/internal/config"
)

// Tool is a known deployment target.
type Tool struct {
	Name     string          `json:"name"`
	Category config.Category `json:"category"`
	// HomeDir is the tool's state directory relative to the user's home.
	HomeDir string `json:"homeDir"`
}

var catalog = []Tool{
	{Name: "vscode", Category: config.CategoryIDE, HomeDir: ".vscode"},
	{Name: "cursor", Category: config.CategoryIDE, HomeDir: ".cursor"},
	{Name: "windsurf", Category: config.CategoryIDE, HomeDir: ".codeium/windsurf"},
	{Name: "zed", Category: config.CategoryIDE, HomeDir: ".config/zed"},
	{Name: "gemini", Category: config.CategoryCLI, HomeDir: ".gemini"},
	{Name: "claude", Category: config.CategoryCLI, HomeDir: ".claude"},
	{Name: "codex", Category: config.CategoryCLI, HomeDir: ".codex"},
	{Name: "qwen", Category: config.CategoryCLI, HomeDir: ".qwen"},
	{Name: "opencode", Category: config.CategoryCustom, HomeDir: ".config/opencode"},
}

// Catalog returns every known tool ordered by category, then name.
func Catalog() []Tool {
	out := append([]Tool(nil), catalog...)
	sortTools(out)
	return out
}

// Lookup returns the catalogued tool with the given name.
func Lookup(name string) (Tool, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

func categoryRank(c config.Category) int {
	for i, cat := range config.Categories {
		if cat == c {
			return i
		}
	}
	return len(config.Categories)
}

func sortTools(tools []Tool) {
	sort.Slice(tools, func(i, j int) bool {
		ri, rj := categoryRank(tools[i].Category), categoryRank(tools[j].Category)
		if ri != rj {
			return ri < rj
		}
		return tools[i].Name < tools[j].Name
	})
}
