package config

// Category groups deployment targets by the kind of tool they describe.
type Category string

const (
	CategoryIDE    Category = "ide"
	CategoryCLI    Category = "cli"
	CategoryCustom Category = "custom"
)

// Categories lists every category in flattening order.
var Categories = []Category{CategoryIDE, CategoryCLI, CategoryCustom}

// SetState distinguishes a category that a layer never mentioned from one it
// declared empty.
type SetState int

const (
	SetUnset SetState = iota
	SetEmpty
	SetValues
)

func (s SetState) String() string {
	switch s {
	case SetEmpty:
		return "empty"
	case SetValues:
		return "values"
	default:
		return "unset"
	}
}

// Targets holds the target names per category. A nil category is unset at
// this layer; a non-nil empty slice is an explicit empty set.
type Targets struct {
	IDE    *[]string `toml:"ide,omitempty" json:"ide,omitempty"`
	CLI    *[]string `toml:"cli,omitempty" json:"cli,omitempty"`
	Custom *[]string `toml:"custom,omitempty" json:"custom,omitempty"`
}

// CapabilitySettings describes how one capability is rendered for a provider.
// Every field is optional so that a layer can inherit it from the layer below.
type CapabilitySettings struct {
	Template  *string           `toml:"template,omitempty" json:"template,omitempty"`
	Target    *string           `toml:"target,omitempty" json:"target,omitempty"`
	Disabled  *bool             `toml:"disabled,omitempty" json:"disabled,omitempty"`
	Variables map[string]string `toml:"variables,omitempty" json:"variables,omitempty"`
	Hash      *string           `toml:"hash,omitempty" json:"hash,omitempty"`
}

// AbilitySettings carries the per-capability settings of one provider.
type AbilitySettings struct {
	MCP          *CapabilitySettings `toml:"mcp,omitempty" json:"mcp,omitempty"`
	Instructions *CapabilitySettings `toml:"instructions,omitempty" json:"instructions,omitempty"`
	Commands     *CapabilitySettings `toml:"commands,omitempty" json:"commands,omitempty"`
}

// Providers maps provider names to their settings, per category. A nil map
// means the category was never configured.
type Providers struct {
	IDE    map[string]AbilitySettings `toml:"ide,omitempty" json:"ide,omitempty"`
	CLI    map[string]AbilitySettings `toml:"cli,omitempty" json:"cli,omitempty"`
	Custom map[string]AbilitySettings `toml:"custom,omitempty" json:"custom,omitempty"`
}

// GlobalConfig is the shared, checked-in document (config.toml).
type GlobalConfig struct {
	Schema    *string           `toml:"schema,omitempty" json:"schema,omitempty"`
	Features  []string          `toml:"features" json:"features"`
	Targets   *Targets          `toml:"targets,omitempty" json:"targets,omitempty"`
	Providers *Providers        `toml:"providers,omitempty" json:"providers,omitempty"`
	Variables map[string]string `toml:"variables,omitempty" json:"variables,omitempty"`
}

// LocalConfig is the per-workspace override document (local.config.toml).
// Every field is optional, which also makes it the generic layer shape used
// by MergeLayers.
type LocalConfig struct {
	Schema    *string           `toml:"schema,omitempty" json:"schema,omitempty"`
	Features  *[]string         `toml:"features,omitempty" json:"features,omitempty"`
	Targets   *Targets          `toml:"targets,omitempty" json:"targets,omitempty"`
	Providers *Providers        `toml:"providers,omitempty" json:"providers,omitempty"`
	Variables map[string]string `toml:"variables,omitempty" json:"variables,omitempty"`
}

// AppConfig is the effective configuration produced by merging both layers.
type AppConfig struct {
	Schema    string            `toml:"schema" json:"schema"`
	Features  []string          `toml:"features" json:"features"`
	Targets   Targets           `toml:"targets" json:"targets"`
	Providers Providers         `toml:"providers,omitempty" json:"providers,omitempty"`
	Variables map[string]string `toml:"variables,omitempty" json:"variables,omitempty"`
}

// CacheConfig is the projection persisted between deploy passes.
type CacheConfig struct {
	Schema    string    `toml:"schema" json:"schema"`
	Providers Providers `toml:"providers,omitempty" json:"providers,omitempty"`
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Names returns a pointer to a copy of names, for building Targets literals.
func Names(names ...string) *[]string {
	out := append([]string{}, names...)
	return &out
}

// Get returns the names configured for a category, or nil when unset.
func (t Targets) Get(c Category) *[]string {
	switch c {
	case CategoryIDE:
		return t.IDE
	case CategoryCLI:
		return t.CLI
	case CategoryCustom:
		return t.Custom
	}
	return nil
}

// Set replaces the names of a category with a copy of names.
func (t *Targets) Set(c Category, names []string) {
	v := Names(names...)
	switch c {
	case CategoryIDE:
		t.IDE = v
	case CategoryCLI:
		t.CLI = v
	case CategoryCustom:
		t.Custom = v
	}
}

// State reports whether a category is unset, explicitly empty or populated.
func (t Targets) State(c Category) SetState {
	names := t.Get(c)
	switch {
	case names == nil:
		return SetUnset
	case len(*names) == 0:
		return SetEmpty
	default:
		return SetValues
	}
}

// Has reports whether name is listed under category c.
func (t Targets) Has(c Category, name string) bool {
	names := t.Get(c)
	if names == nil {
		return false
	}
	for _, n := range *names {
		if n == name {
			return true
		}
	}
	return false
}

// Get returns the provider map of a category.
func (p Providers) Get(c Category) map[string]AbilitySettings {
	switch c {
	case CategoryIDE:
		return p.IDE
	case CategoryCLI:
		return p.CLI
	case CategoryCustom:
		return p.Custom
	}
	return nil
}

// ensure makes category c configured, keeping any existing entries.
func (p *Providers) ensure(c Category) {
	switch c {
	case CategoryIDE:
		if p.IDE == nil {
			p.IDE = map[string]AbilitySettings{}
		}
	case CategoryCLI:
		if p.CLI == nil {
			p.CLI = map[string]AbilitySettings{}
		}
	case CategoryCustom:
		if p.Custom == nil {
			p.Custom = map[string]AbilitySettings{}
		}
	}
}

// Put stores settings for a provider, creating the category map if needed.
func (p *Providers) Put(c Category, name string, settings AbilitySettings) {
	var m *map[string]AbilitySettings
	switch c {
	case CategoryIDE:
		m = &p.IDE
	case CategoryCLI:
		m = &p.CLI
	case CategoryCustom:
		m = &p.Custom
	default:
		return
	}
	if *m == nil {
		*m = map[string]AbilitySettings{}
	}
	(*m)[name] = settings
}

// Capability returns the settings for a feature, or nil when absent.
func (a AbilitySettings) Capability(feature string) *CapabilitySettings {
	switch feature {
	case FeatureMCP:
		return a.MCP
	case FeatureInstructions:
		return a.Instructions
	case FeatureCommands:
		return a.Commands
	}
	return nil
}

// SetCapability replaces the settings for a feature.
func (a *AbilitySettings) SetCapability(feature string, settings *CapabilitySettings) {
	switch feature {
	case FeatureMCP:
		a.MCP = settings
	case FeatureInstructions:
		a.Instructions = settings
	case FeatureCommands:
		a.Commands = settings
	}
}

// IsDisabled reports whether the capability is explicitly disabled.
func (s CapabilitySettings) IsDisabled() bool {
	return s.Disabled != nil && *s.Disabled
}

// HashValue returns the stored hash or "".
func (s CapabilitySettings) HashValue() string {
	if s.Hash == nil {
		return ""
	}
	return *s.Hash
}
