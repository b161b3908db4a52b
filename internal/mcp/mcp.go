// Package mcp models the MCP server definition document (mcp.jsonc) that
// deploy passes to mcp templates.
package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"
)

// SchemaURL is written into new documents.
const SchemaURL = "https://dotagents.soorya-u.dev/schemas/mcp.schema.json"

// ServerType selects the transport of a server definition.
type ServerType string

const (
	ServerHTTP  ServerType = "http"
	ServerStdio ServerType = "stdio"
)

var (
	ErrUnknownServerType = errors.New("unknown server type")
	ErrMissingURL        = errors.New("http server requires a url")
	ErrMissingCommand    = errors.New("stdio server requires a command")
)

// Server is one MCP server definition. Fields not meaningful for the server
// type are left empty.
type Server struct {
	Type          ServerType        `json:"type"`
	Disabled      *bool             `json:"disabled,omitempty"`
	DisabledTools []string          `json:"disabledTools,omitempty"`
	URL           string            `json:"url,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Command       string            `json:"command,omitempty"`
	Args          []string          `json:"args,omitempty"`
	Cwd           string            `json:"cwd,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
	EnvFile       string            `json:"envFile,omitempty"`
}

// HTTPServer returns an http server definition.
func HTTPServer(url string, headers map[string]string) Server {
	return Server{Type: ServerHTTP, URL: url, Headers: headers}
}

// StdioServer returns a stdio server definition.
func StdioServer(command string, args []string, cwd string, env map[string]string) Server {
	return Server{Type: ServerStdio, Command: command, Args: args, Cwd: cwd, Env: env}
}

// IsDisabled reports whether the server is explicitly disabled.
func (s Server) IsDisabled() bool {
	return s.Disabled != nil && *s.Disabled
}

// Validate checks that the fields required by the server type are present.
func (s Server) Validate() error {
	switch s.Type {
	case ServerHTTP:
		if s.URL == "" {
			return ErrMissingURL
		}
	case ServerStdio:
		if s.Command == "" {
			return ErrMissingCommand
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownServerType, s.Type)
	}
	return nil
}

// Config is the whole MCP document.
type Config struct {
	Schema  string            `json:"$schema"`
	Servers map[string]Server `json:"servers"`
}

// New returns an empty document.
func New() Config {
	return Config{Schema: SchemaURL, Servers: map[string]Server{}}
}

// Add registers a server under name, replacing any existing definition.
func (c *Config) Add(name string, s Server) {
	if c.Servers == nil {
		c.Servers = map[string]Server{}
	}
	c.Servers[name] = s
}

// Names returns the server names, sorted.
func (c Config) Names() []string {
	out := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Enabled returns the servers that are not disabled.
func (c Config) Enabled() map[string]Server {
	out := make(map[string]Server, len(c.Servers))
	for name, s := range c.Servers {
		if !s.IsDisabled() {
			out[name] = s
		}
	}
	return out
}

// Validate checks every server, in name order.
func (c Config) Validate() error {
	for _, name := range c.Names() {
		if err := c.Servers[name].Validate(); err != nil {
			return fmt.Errorf("MCP_SCHEMA: server %q: %w", name, err)
		}
	}
	return nil
}

// Parse decodes a document. Comments and trailing commas are allowed.
func Parse(data []byte) (Config, error) {
	clean := jsonc.ToJSON(data)
	if !gjson.ValidBytes(clean) {
		return Config{}, fmt.Errorf("MCP_PARSE: document is not valid JSON")
	}
	if servers := gjson.GetBytes(clean, "servers"); servers.Exists() && !servers.IsObject() {
		return Config{}, fmt.Errorf("MCP_SCHEMA: servers must be an object, got %s", servers.Type)
	}
	var cfg Config
	if err := json.Unmarshal(clean, &cfg); err != nil {
		return Config{}, fmt.Errorf("MCP_PARSE: %w", err)
	}
	if cfg.Servers == nil {
		cfg.Servers = map[string]Server{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the document at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("MCP_READ: %w", err)
	}
	return Parse(data)
}

// JSON encodes the document with two-space indentation.
func (c Config) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("MCP_ENCODE: %w", err)
	}
	return data, nil
}

// Value returns the document as generic JSON data for templates.
func (c Config) Value() (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("MCP_ENCODE: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("MCP_ENCODE: %w", err)
	}
	return out, nil
}

// Normalize re-indents rendered output that is valid JSON so that whitespace
// differences between template revisions do not show up as drift. Anything
// else is returned unchanged.
func Normalize(rendered []byte) []byte {
	clean := jsonc.ToJSON(rendered)
	if !gjson.ValidBytes(clean) {
		return rendered
	}
	return pretty.PrettyOptions(clean, &pretty.Options{Width: 80, Indent: "  "})
}
