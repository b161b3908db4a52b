package templates

import (
	"errors"
	"fmt"
)

// ErrNotRegistered is returned when rendering an unknown template name.
var ErrNotRegistered = errors.New("template not registered")

// Stages at which a RenderError can occur.
const (
	OpLoad   = "load"
	OpParse  = "parse"
	OpRender = "render"
)

// RenderError reports a template that could not be loaded, parsed or executed.
type RenderError struct {
	Op       string
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("TPL_RENDER: failed to %s template %s: %v", e.Op, e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
