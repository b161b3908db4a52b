package resolver

import (
	"errors"
	"fmt"

	"dotagents/internal/config"
)

// Layer names used to annotate errors.
const (
	LayerGlobal    = "global"
	LayerLocal     = "local"
	LayerEffective = "effective"
)

// Renderer produces the raw text of a named document. *templates.Templater
// satisfies it.
type Renderer interface {
	Has(name string) bool
	Render(name string, data map[string]any) (string, error)
}

// LayerError records which layer was being processed when a lower-level
// error occurred.
type LayerError struct {
	Layer string
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("RES_LAYER: invalid %s config: %v", e.Layer, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

// Result holds both parsed layers and the effective configuration.
type Result struct {
	Global    config.GlobalConfig `json:"global"`
	Local     config.LocalConfig  `json:"local"`
	Effective config.AppConfig    `json:"effective"`
}

// Resolve renders the global and local documents and resolves them. A local
// document that was never registered is treated as empty.
func Resolve(r Renderer) (Result, error) {
	if r == nil {
		return Result{}, errors.New("RES_SETUP: no renderer configured")
	}
	globalText, err := r.Render(config.GlobalConfigFile, nil)
	if err != nil {
		return Result{}, &LayerError{Layer: LayerGlobal, Err: err}
	}
	localText := ""
	if r.Has(config.LocalConfigFile) {
		localText, err = r.Render(config.LocalConfigFile, nil)
		if err != nil {
			return Result{}, &LayerError{Layer: LayerLocal, Err: err}
		}
	}
	return ResolveSources(globalText, localText)
}

// ResolveSources parses, validates and merges two already rendered documents.
// The merged result is validated as well.
func ResolveSources(globalSource, localSource string) (Result, error) {
	global, err := config.ParseGlobal(config.GlobalConfigFile, []byte(globalSource))
	if err != nil {
		return Result{}, &LayerError{Layer: LayerGlobal, Err: err}
	}
	local, err := config.ParseLocal(config.LocalConfigFile, []byte(localSource))
	if err != nil {
		return Result{}, &LayerError{Layer: LayerLocal, Err: err}
	}
	if err := global.Validate(); err != nil {
		return Result{}, &LayerError{Layer: LayerGlobal, Err: err}
	}
	if err := local.Validate(); err != nil {
		return Result{}, &LayerError{Layer: LayerLocal, Err: err}
	}
	effective := config.FromLayers(global, local)
	if err := effective.Validate(); err != nil {
		return Result{}, &LayerError{Layer: LayerEffective, Err: err}
	}
	return Result{Global: global, Local: local, Effective: effective}, nil
}
