// Package scaffold creates a new .dotagents directory with seed documents.
package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"dotagents/internal/adapter"
	"dotagents/internal/command"
	"dotagents/internal/config"
	"dotagents/internal/fsutil"
	"dotagents/internal/mcp"
)

// ErrExists is returned when the application directory already exists and
// Force is not set.
var ErrExists = errors.New("application directory already exists")

// Options select what init seeds.
type Options struct {
	NoMCP         bool
	NoCommand     bool
	NoInstruction bool
	Force         bool
	// Detected tools are added to the global targets.
	Detected []adapter.Detection
}

// Features returns the feature list implied by the options.
func (o Options) Features() []string {
	var out []string
	if !o.NoCommand {
		out = append(out, config.FeatureCommands)
	}
	if !o.NoInstruction {
		out = append(out, config.FeatureInstructions)
	}
	if !o.NoMCP {
		out = append(out, config.FeatureMCP)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// Result lists what init created.
type Result struct {
	ApplicationDir string   `json:"applicationDir"`
	Files          []string `json:"files"`
}

// Init seeds the application directory of workspaceRoot.
func Init(workspaceRoot string, opts Options) (Result, error) {
	appDir := config.ApplicationDir(workspaceRoot)
	if _, err := os.Stat(appDir); err == nil && !opts.Force {
		return Result{}, fmt.Errorf("INIT_EXISTS: %s: %w (use --force to overwrite)", appDir, ErrExists)
	}
	files, err := seedFiles(opts)
	if err != nil {
		return Result{}, err
	}
	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	res := Result{ApplicationDir: appDir}
	for _, rel := range rels {
		path := filepath.Join(appDir, filepath.FromSlash(rel))
		if err := fsutil.AtomicWrite(path, files[rel], 0o644); err != nil {
			return Result{}, fmt.Errorf("INIT_WRITE: %w", err)
		}
		res.Files = append(res.Files, path)
	}
	for _, dir := range []string{config.CommandsDir, config.CacheDir} {
		if err := os.MkdirAll(filepath.Join(appDir, dir), 0o755); err != nil {
			return Result{}, fmt.Errorf("INIT_WRITE: %w", err)
		}
	}
	return res, nil
}

// seedFiles returns the seed documents keyed by slash-separated path
// relative to the application directory.
func seedFiles(opts Options) (map[string][]byte, error) {
	files := map[string][]byte{
		".gitignore":               []byte(config.CacheDir + "/\n" + config.LocalConfigFile + "\n"),
		"templates/opencode.json":  []byte(opencodeMCPTemplate),
		"templates/INSTRUCTION.md": []byte(instructionTemplate),
		"templates/commands.md":    []byte(commandTemplate),
		config.InstructionsFile:    []byte(instructionsSeed),
	}

	global, local := SeedConfigs(opts)
	globalText, err := config.Marshal(global)
	if err != nil {
		return nil, err
	}
	localText, err := config.Marshal(local)
	if err != nil {
		return nil, err
	}
	files[config.GlobalConfigFile] = globalText
	files[config.LocalConfigFile] = localText

	md, err := HelloCommand().ToMarkdown()
	if err != nil {
		return nil, err
	}
	files[config.CommandsDir+"/dummy.md"] = []byte(md)

	mcpText, err := SeedMCP().JSON()
	if err != nil {
		return nil, err
	}
	files[config.MCPFile] = mcpText
	return files, nil
}

// SeedConfigs returns the global and local documents written by init.
func SeedConfigs(opts Options) (config.GlobalConfig, config.LocalConfig) {
	targets := map[config.Category][]string{
		config.CategoryIDE:    {"vscode", "windsurf"},
		config.CategoryCLI:    {"gemini"},
		config.CategoryCustom: {},
	}
	for _, d := range opts.Detected {
		if d.Category == config.CategoryCustom {
			continue
		}
		if !contains(targets[d.Category], d.Name) {
			targets[d.Category] = append(targets[d.Category], d.Name)
		}
	}
	for c := range targets {
		sort.Strings(targets[c])
	}

	global := config.GlobalConfig{
		Schema:   config.String(config.SchemaURL),
		Features: opts.Features(),
		Targets: &config.Targets{
			IDE:    config.Names(targets[config.CategoryIDE]...),
			CLI:    config.Names(targets[config.CategoryCLI]...),
			Custom: config.Names(),
		},
	}
	local := config.LocalConfig{
		Schema: config.String(config.SchemaURL),
		Targets: &config.Targets{
			Custom: config.Names("opencode"),
		},
		Providers: &config.Providers{
			Custom: map[string]config.AbilitySettings{
				"opencode": {
					MCP: &config.CapabilitySettings{
						Template: config.String("templates/opencode.json"),
						Target:   config.String("{{ .workspace_dir }}/.opencode/mcp.json"),
					},
					Instructions: &config.CapabilitySettings{
						Template: config.String("templates/INSTRUCTION.md"),
						Target:   config.String("{{ .workspace_dir }}/.opencode/instructions.md"),
					},
					Commands: &config.CapabilitySettings{
						Template: config.String("templates/commands.md"),
						Target:   config.String("{{ .workspace_dir }}/.opencode/commands"),
					},
				},
			},
		},
	}
	return global, local
}

// HelloCommand is the example command seeded by init.
func HelloCommand() command.Command {
	return command.New("hello", "A Hello Command to greet the User.", `# Hello Command

Greet the User with his name if present, else greet user as stranger.

Context: $USER_INPUT`)
}

// SeedMCP is the example MCP document seeded by init.
func SeedMCP() mcp.Config {
	cfg := mcp.New()
	cfg.Add("server-mcp", mcp.HTTPServer("http://localhost:9000", map[string]string{
		"Authorization": "Bearer ${API_KEY}",
	}))
	cfg.Add("server-stdio", mcp.StdioServer("python", nil, "{{ .workspace_dir }}", nil))
	return cfg
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

const instructionsSeed = `# Instructions for {{ .agent_name }}

This is a custom instructions for {{ .agent_name }} for a given repository.
`

const instructionTemplate = `{{ .instructions }}`

const opencodeMCPTemplate = `{
  "$schema": "https://opencode.ai/config.json",
  "mcp": {{ json .servers }}
}
`

const commandTemplate = `---
description: {{ .command.description }}
---

{{ .command.content }}
`
