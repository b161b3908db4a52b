package config

// SchemaURL is used when neither layer names a schema.
const SchemaURL = "https://dotagents.soorya-u.dev/schemas/config.schema.json"

const (
	FeatureCommands     = "commands"
	FeatureInstructions = "instructions"
	FeatureMCP          = "mcp"
)

// KnownFeatures is the complete feature vocabulary, in display order.
var KnownFeatures = []string{FeatureCommands, FeatureInstructions, FeatureMCP}

// IsKnownFeature reports whether name belongs to KnownFeatures.
func IsKnownFeature(name string) bool {
	for _, f := range KnownFeatures {
		if f == name {
			return true
		}
	}
	return false
}

// DefaultGlobalConfig returns an empty global document with the built-in schema.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Schema:   String(SchemaURL),
		Features: []string{},
		Targets:  &Targets{},
	}
}

// DefaultLocalConfig returns a local document that overrides nothing but the schema.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{Schema: String(SchemaURL)}
}

// DefaultAppConfig returns an effective configuration with no features,
// empty target sets and no providers.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Schema:   SchemaURL,
		Features: []string{},
		Targets: Targets{
			IDE:    Names(),
			CLI:    Names(),
			Custom: Names(),
		},
	}
}

// DefaultCacheConfig returns an empty cache projection.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{Schema: SchemaURL}
}
