package reconcile

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/nhle/juscheck/internal/cnj"
	"github.com/nhle/juscheck/internal/datajud"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/notify"
)

// displayTimeLayout mirrors the pt-BR locale rendering "dd/mm/aaaa, hh:mm:ss".
const displayTimeLayout = "02/01/2006, 15:04:05"

var welcomeTmpl = template.Must(template.New("welcome").Parse(
	`<p>Olá!</p>` +
		`<p>O processo <strong>{{.Number}}</strong> foi adicionado com sucesso ao seu monitoramento.</p>` +
		`{{with .Latest}}<p>Última movimentação: <strong>{{.Description}}</strong> (em {{.When}})</p>{{end}}` +
		`<p>A partir de agora, você será notificado sobre qualquer nova movimentação.</p>`,
))

var newMovementsTmpl = template.Must(template.New("new").Parse(
	`<p>Olá!</p>` +
		`<p>Detectamos <strong>{{.Count}} nova(s) movimentação(ões)</strong> no processo <strong>{{.Number}}</strong>:</p>` +
		`<ul>{{range .Movements}}<li><strong>{{.Description}}</strong> (em {{.When}})</li>{{end}}</ul>` +
		`<p>Acesse o portal do tribunal ou o dashboard do JusCheck para mais detalhes.</p>`,
))

type movementView struct {
	Description string
	When        string
}

// Composer renders notification subjects and HTML bodies in Portuguese.
type Composer struct {
	loc     *time.Location
	welcome *template.Template
	alert   *template.Template
}

// NewComposer returns a composer rendering timestamps in loc (UTC when nil).
func NewComposer(loc *time.Location) Composer {
	if loc == nil {
		loc = time.UTC
	}
	return Composer{loc: loc, welcome: welcomeTmpl, alert: newMovementsTmpl}
}

// Welcome builds the first-check message. It is sent even when the process
// has no movements yet.
func (c Composer) Welcome(number string, snap *datajud.Snapshot) (*notify.Message, error) {
	display := cnj.Format(number)
	data := struct {
		Number string
		Latest *movementView
	}{Number: display}
	if snap != nil {
		if latest, ok := snap.Latest(); ok {
			v := c.view(latest)
			data.Latest = &v
		}
	}

	html, err := render(c.welcome, data)
	if err != nil {
		return nil, err
	}
	return &notify.Message{
		Kind:    model.NotificationWelcome,
		Subject: "[JusCheck] Processo " + display + " adicionado ao monitoramento",
		HTML:    html,
	}, nil
}

// NewMovements builds the change alert. movements must be newest first; the
// subject names the newest one.
func (c Composer) NewMovements(number string, movements []datajud.Movement) (*notify.Message, error) {
	if len(movements) == 0 {
		return nil, nil
	}
	display := cnj.Format(number)

	views := make([]movementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, c.view(m))
	}

	html, err := render(c.alert, struct {
		Number    string
		Count     string
		Movements []movementView
	}{Number: display, Count: strconv.Itoa(len(movements)), Movements: views})
	if err != nil {
		return nil, err
	}
	return &notify.Message{
		Kind:    model.NotificationNewMovements,
		Subject: "[JusCheck] Nova movimentação em " + display + ": " + movements[0].Description,
		HTML:    html,
	}, nil
}

func (c Composer) view(m datajud.Movement) movementView {
	return movementView{Description: m.Description, When: c.FormatTime(m.At)}
}

// FormatTime renders t for humans in the composer's timezone.
func (c Composer) FormatTime(t time.Time) string {
	if t.IsZero() {
		return "data desconhecida"
	}
	return t.In(c.loc).Format(displayTimeLayout)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
