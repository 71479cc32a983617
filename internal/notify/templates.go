package notify

import (
	"strings"
	"text/template"
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

// TimeLayout is how history timestamps appear in messages.
const TimeLayout = "2006/01/02 15:04:05"

var funcs = template.FuncMap{
	"stamp": func(t time.Time) string { return t.Local().Format(TimeLayout) },
}

var changeTmpl = template.Must(template.New("change").Funcs(funcs).Parse(
	"Host: {{ .Spec.Destination }}\n" +
		"Description: {{ .Spec.Description }}\n" +
		"Type: {{ .Spec.Type }}\n" +
		"State: {{ .State.Label }}"))

var reportTmpl = template.Must(template.New("report").Funcs(funcs).Parse(
	"Host: {{ .Spec.Destination }}\n" +
		"Description: {{ .Spec.Description }}\n" +
		"Type: {{ .Spec.Type }}\n" +
		"History:\n" +
		"{{ range .Entries }}- {{ stamp .Timestamp }}: {{ .Label }}\n{{ end }}"))

// RenderChange renders the message sent when a check's confirmed state changes.
func RenderChange(r domain.CheckResult) (string, error) {
	var b strings.Builder
	if err := changeTmpl.Execute(&b, r); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderSection renders one check's block of a digest.
func RenderSection(s ReportSection) (string, error) {
	var b strings.Builder
	if err := reportTmpl.Execute(&b, s); err != nil {
		return "", err
	}
	return b.String(), nil
}
