// Package templates renders configuration documents and provider artifacts
// with text/template. A Templater is built once per invocation and passed to
// whatever needs rendering.
package templates

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"text/template"

	"dario.cat/mergo"

	"dotagents/internal/config"
)

// Names of the built-in variables every render can see.
const (
	VarConfigDir      = "config_dir"
	VarWorkspaceDir   = "workspace_dir"
	VarApplicationDir = "application_dir"
)

// Defaults holds the values of the built-in variables.
type Defaults struct {
	ConfigDir      string
	WorkspaceDir   string
	ApplicationDir string
}

// Vars returns the defaults as template data.
func (d Defaults) Vars() map[string]any {
	return map[string]any{
		VarConfigDir:      d.ConfigDir,
		VarWorkspaceDir:   d.WorkspaceDir,
		VarApplicationDir: d.ApplicationDir,
	}
}

// Templater owns a set of named templates and the built-in variables.
type Templater struct {
	defaults  Defaults
	funcs     template.FuncMap
	templates map[string]*template.Template
}

// New creates an empty templater.
func New(defaults Defaults) *Templater {
	return &Templater{
		defaults:  defaults,
		funcs:     defaultFuncMap(),
		templates: make(map[string]*template.Template),
	}
}

// ForWorkspace creates a templater for a workspace and registers config.toml
// and, when present, local.config.toml from its application directory.
func ForWorkspace(workspaceRoot string) (*Templater, error) {
	configDir, err := config.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("TPL_DEFAULTS: resolve config dir: %w", err)
	}
	appDir := config.ApplicationDir(workspaceRoot)
	t := New(Defaults{
		ConfigDir:      configDir,
		WorkspaceDir:   workspaceRoot,
		ApplicationDir: appDir,
	})
	if err := t.RegisterFile(config.GlobalConfigFile, config.GlobalConfigPath(workspaceRoot)); err != nil {
		return nil, err
	}
	localPath := config.LocalConfigPath(workspaceRoot)
	if _, err := os.Stat(localPath); err == nil {
		if err := t.RegisterFile(config.LocalConfigFile, localPath); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Defaults returns the built-in variable values.
func (t *Templater) Defaults() Defaults { return t.defaults }

// RegisterFile parses the file at path and registers it under name.
func (t *Templater) RegisterFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &RenderError{Op: OpLoad, Template: name, Err: err}
	}
	return t.RegisterText(name, string(data))
}

// RegisterText parses text and registers it under name, replacing any
// template already registered with that name.
func (t *Templater) RegisterText(name, text string) error {
	tmpl, err := t.parse(name, text)
	if err != nil {
		return err
	}
	t.templates[name] = tmpl
	return nil
}

// Has reports whether a template is registered under name.
func (t *Templater) Has(name string) bool {
	_, ok := t.templates[name]
	return ok
}

// Names returns the registered template names, sorted.
func (t *Templater) Names() []string {
	out := make([]string, 0, len(t.templates))
	for name := range t.templates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Render executes a registered template. data may be nil; it is layered over
// the built-in variables and wins on collision.
func (t *Templater) Render(name string, data map[string]any) (string, error) {
	tmpl, ok := t.templates[name]
	if !ok {
		return "", &RenderError{Op: OpRender, Template: name, Err: ErrNotRegistered}
	}
	return t.execute(name, tmpl, data)
}

// RenderText parses and executes text without registering it.
func (t *Templater) RenderText(name, text string, data map[string]any) (string, error) {
	tmpl, err := t.parse(name, text)
	if err != nil {
		return "", err
	}
	return t.execute(name, tmpl, data)
}

// Data returns the built-in variables with data layered on top. data is not
// modified.
func (t *Templater) Data(data map[string]any) (map[string]any, error) {
	out := t.defaults.Vars()
	if len(data) == 0 {
		return out, nil
	}
	if err := mergo.Merge(&out, data, mergo.WithOverride); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Templater) parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(t.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &RenderError{Op: OpParse, Template: name, Err: err}
	}
	return tmpl, nil
}

func (t *Templater) execute(name string, tmpl *template.Template, data map[string]any) (string, error) {
	merged, err := t.Data(data)
	if err != nil {
		return "", &RenderError{Op: OpRender, Template: name, Err: err}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, merged); err != nil {
		return "", &RenderError{Op: OpRender, Template: name, Err: err}
	}
	return buf.String(), nil
}
