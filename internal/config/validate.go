package config

// Validate checks the global document. Features are checked before targets.
func (g GlobalConfig) Validate() error {
	return validateDocument(g.Features, g.Targets, g.Providers)
}

// Validate checks the local document. An absent feature list is valid.
func (l LocalConfig) Validate() error {
	var features []string
	if l.Features != nil {
		features = *l.Features
	}
	return validateDocument(features, l.Targets, l.Providers)
}

// Validate checks the effective configuration.
func (c AppConfig) Validate() error {
	return validateDocument(c.Features, &c.Targets, &c.Providers)
}

func validateDocument(features []string, targets *Targets, providers *Providers) error {
	for _, f := range features {
		if !IsKnownFeature(f) {
			return &ValidationError{Kind: ErrUnknownFeature, Name: f}
		}
	}
	if targets == nil || targets.State(CategoryCustom) != SetValues {
		return nil
	}
	if providers == nil || providers.Custom == nil {
		return &ValidationError{Kind: ErrMissingCustomProviderSection}
	}
	for _, name := range *targets.Custom {
		if _, ok := providers.Custom[name]; !ok {
			return &ValidationError{Kind: ErrUndeclaredCustomProvider, Name: name}
		}
	}
	return nil
}
