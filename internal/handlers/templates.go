package handlers

import (
	"io"
)

// TemplateExecutor renders a named page. Satisfied by *template.Template and
// by the per-page registry in package web.
type TemplateExecutor interface {
	ExecuteTemplate(wr io.Writer, name string, data interface{}) error
}
