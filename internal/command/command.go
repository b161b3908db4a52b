// Package command reads and writes command documents: markdown with a YAML
// front matter block carrying the command name and description.
package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Ext is the file extension of command documents.
const Ext = ".md"

// ErrMissingFrontMatter is returned for markdown without a front matter block.
var ErrMissingFrontMatter = errors.New("missing YAML front matter")

// Metadata is the front matter of a command document.
type Metadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Command is a parsed command document.
type Command struct {
	Metadata Metadata `json:"metadata"`
	Content  string   `json:"content"`
}

// New returns a command with the given metadata and body.
func New(name, description, content string) Command {
	return Command{
		Metadata: Metadata{Name: name, Description: description},
		Content:  content,
	}
}

// FileName is the file a command is written to inside a commands directory.
func (c Command) FileName() string {
	return c.Metadata.Name + Ext
}

// ToMarkdown serializes the command as front matter followed by a blank line
// and the body.
func (c Command) ToMarkdown() (string, error) {
	meta, err := yaml.Marshal(c.Metadata)
	if err != nil {
		return "", fmt.Errorf("CMD_ENCODE: %w", err)
	}
	return delimiter + "\n" + string(meta) + delimiter + "\n\n" + c.Content, nil
}

// FromMarkdown parses a command document.
func FromMarkdown(md string) (Command, error) {
	trimmed := strings.TrimLeft(md, " \t\r\n")
	if !strings.HasPrefix(trimmed, delimiter) {
		return Command{}, fmt.Errorf("CMD_PARSE: %w", ErrMissingFrontMatter)
	}
	parts := strings.SplitN(trimmed, delimiter, 3)
	if len(parts) < 3 {
		return Command{}, fmt.Errorf("CMD_PARSE: %w", ErrMissingFrontMatter)
	}
	var meta Metadata
	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		return Command{}, fmt.Errorf("CMD_PARSE: failed to parse front matter: %w", err)
	}
	if strings.TrimSpace(meta.Name) == "" {
		return Command{}, fmt.Errorf("CMD_PARSE: front matter is missing a name")
	}
	return Command{Metadata: meta, Content: strings.TrimLeft(parts[2], "\r\n")}, nil
}

// LoadFile reads and parses one command document.
func LoadFile(path string) (Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Command{}, err
	}
	cmd, err := FromMarkdown(string(data))
	if err != nil {
		return Command{}, fmt.Errorf("%s: %w", path, err)
	}
	return cmd, nil
}

// LoadDir reads every *.md file in dir, in file name order. A missing
// directory holds no commands.
func LoadDir(dir string) ([]Command, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Command, 0, len(names))
	seen := map[string]string{}
	for _, name := range names {
		cmd, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[cmd.Metadata.Name]; ok {
			return nil, fmt.Errorf("CMD_DUPLICATE: command %q defined in both %s and %s", cmd.Metadata.Name, prev, name)
		}
		seen[cmd.Metadata.Name] = name
		out = append(out, cmd)
	}
	return out, nil
}
