package reconcile

import (
	"html/template"
	"time"
)

// NewEngineWithTemplates returns a UTC engine rendering with the given
// templates.
func NewEngineWithTemplates(welcome, alert *template.Template) Engine {
	c := NewComposer(time.UTC)
	c.welcome, c.alert = welcome, alert
	return Engine{composer: c}
}
