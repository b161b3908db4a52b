package deploy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"

	"dotagents/internal/command"
	"dotagents/internal/config"
	"dotagents/internal/fsutil"
	"dotagents/internal/mcp"
	"dotagents/internal/templates"
)

// output is one file produced for an artifact.
type output struct {
	path    string
	content []byte
}

type rendered struct {
	target  string
	outputs []output
	// dir is set when target is a directory of outputs. File names then
	// count towards the hash.
	dir bool
	// stale lists files in a directory target that this pass no longer
	// produces.
	stale []string
}

// hash fingerprints every output in order. A single file target hashes to
// the digest of its content.
func (r rendered) hash() string {
	if !r.dir && len(r.outputs) == 1 {
		return fsutil.HashContent(r.outputs[0].content)
	}
	var b strings.Builder
	for _, o := range r.outputs {
		b.WriteString(filepath.Base(o.path))
		b.WriteByte(0)
		b.Write(o.content)
		b.WriteByte(0)
	}
	return fsutil.HashContent([]byte(b.String()))
}

// renderer loads the feature payloads lazily and renders artifacts.
type renderer struct {
	workspaceRoot string
	appDir        string
	tpl           *templates.Templater
	effective     config.AppConfig

	instructions *string
	mcpDoc       map[string]any
	mcpServers   map[string]any
	commands     []command.Command
	loaded       map[string]bool
}

func newRenderer(workspaceRoot string, tpl *templates.Templater, effective config.AppConfig) *renderer {
	return &renderer{
		workspaceRoot: workspaceRoot,
		appDir:        config.ApplicationDir(workspaceRoot),
		tpl:           tpl,
		effective:     effective,
		loaded:        map[string]bool{},
	}
}

// data builds the template data for one artifact: config variables, then
// capability variables, then the fixed artifact fields.
func (r *renderer) data(target config.FeatureTarget, feature string) (map[string]any, error) {
	data := map[string]any{}
	for _, layer := range []map[string]string{r.effective.Variables, target.Settings.Variables} {
		if err := mergo.Merge(&data, stringsToAny(layer), mergo.WithOverride); err != nil {
			return nil, err
		}
	}
	fixed := map[string]any{
		"agent_name": target.Name,
		"category":   string(target.Category),
		"feature":    feature,
	}
	if err := mergo.Merge(&data, fixed, mergo.WithOverride); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *renderer) render(target config.FeatureTarget, feature string) (rendered, error) {
	data, err := r.data(target, feature)
	if err != nil {
		return rendered{}, err
	}
	key := fmt.Sprintf("%s/%s/%s", target.Category, target.Name, feature)

	targetPath, err := r.tpl.RenderText(key+":target", *target.Settings.Target, data)
	if err != nil {
		return rendered{}, err
	}
	targetPath = r.resolve(r.workspaceRoot, strings.TrimSpace(targetPath))
	data["target"] = targetPath

	templatePath := r.resolve(r.appDir, *target.Settings.Template)
	text, err := os.ReadFile(templatePath)
	if err != nil {
		return rendered{}, &templates.RenderError{Op: templates.OpLoad, Template: templatePath, Err: err}
	}

	switch feature {
	case config.FeatureInstructions:
		instructions, err := r.renderInstructions(data)
		if err != nil {
			return rendered{}, err
		}
		data["instructions"] = instructions
	case config.FeatureMCP:
		if err := r.loadMCP(); err != nil {
			return rendered{}, err
		}
		data["mcp"] = r.mcpDoc
		data["servers"] = r.mcpServers
	case config.FeatureCommands:
		return r.renderCommands(templatePath, string(text), targetPath, data)
	}

	out, err := r.tpl.RenderText(templatePath, string(text), data)
	if err != nil {
		return rendered{}, err
	}
	content := []byte(out)
	if feature == config.FeatureMCP {
		content = mcp.Normalize(content)
	}
	return rendered{target: targetPath, outputs: []output{{path: targetPath, content: content}}}, nil
}

// renderCommands renders the capability template once per command into
// <target>/<name>.md.
func (r *renderer) renderCommands(templatePath, text, targetDir string, data map[string]any) (rendered, error) {
	if err := r.loadCommands(); err != nil {
		return rendered{}, err
	}
	all := make([]map[string]any, 0, len(r.commands))
	for _, c := range r.commands {
		all = append(all, commandData(c))
	}
	data["commands"] = all

	res := rendered{target: targetDir, dir: true}
	for _, c := range r.commands {
		data["command"] = commandData(c)
		out, err := r.tpl.RenderText(templatePath, text, data)
		if err != nil {
			return rendered{}, err
		}
		res.outputs = append(res.outputs, output{path: filepath.Join(targetDir, c.FileName()), content: []byte(out)})
	}
	stale, err := staleFiles(targetDir, res.outputs)
	if err != nil {
		return rendered{}, err
	}
	res.stale = stale
	return res, nil
}

// staleFiles lists the command files in dir that are not among outputs.
// They are reported, never removed.
func staleFiles(dir string, outputs []output) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	produced := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		produced[o.path] = true
	}
	var stale []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() || filepath.Ext(e.Name()) != command.Ext || produced[path] {
			continue
		}
		stale = append(stale, path)
	}
	return stale, nil
}

func commandData(c command.Command) map[string]any {
	return map[string]any{
		"name":        c.Metadata.Name,
		"description": c.Metadata.Description,
		"content":     c.Content,
	}
}

// renderInstructions renders INSTRUCTIONS.md with the artifact's data.
func (r *renderer) renderInstructions(data map[string]any) (string, error) {
	if r.instructions == nil {
		path := filepath.Join(r.appDir, config.InstructionsFile)
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", &templates.RenderError{Op: templates.OpLoad, Template: config.InstructionsFile, Err: err}
		}
		text := string(raw)
		r.instructions = &text
	}
	return r.tpl.RenderText(config.InstructionsFile, *r.instructions, data)
}

func (r *renderer) loadMCP() error {
	if r.loaded[config.FeatureMCP] {
		return nil
	}
	raw, err := os.ReadFile(filepath.Join(r.appDir, config.MCPFile))
	if err != nil {
		return &templates.RenderError{Op: templates.OpLoad, Template: config.MCPFile, Err: err}
	}
	text, err := r.tpl.RenderText(config.MCPFile, string(raw), nil)
	if err != nil {
		return err
	}
	doc, err := mcp.Parse([]byte(text))
	if err != nil {
		return err
	}
	value, err := doc.Value()
	if err != nil {
		return err
	}
	servers := map[string]any{}
	all, _ := value["servers"].(map[string]any)
	for name := range doc.Enabled() {
		servers[name] = all[name]
	}
	r.mcpDoc = value
	r.mcpServers = servers
	r.loaded[config.FeatureMCP] = true
	return nil
}

func (r *renderer) loadCommands() error {
	if r.loaded[config.FeatureCommands] {
		return nil
	}
	cmds, err := command.LoadDir(filepath.Join(r.appDir, config.CommandsDir))
	if err != nil {
		return err
	}
	r.commands = cmds
	r.loaded[config.FeatureCommands] = true
	return nil
}

// resolve makes path absolute relative to base, expanding a leading ~.
func (r *renderer) resolve(base, path string) string {
	if expanded, err := config.ExpandPath(path); err == nil {
		path = expanded
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func stringsToAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
