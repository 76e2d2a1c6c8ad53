// internal/workers/estimate/notify-renovation-estimate/templates.go
package notifyrenovationestimate

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"renovation-estimator/internal/estimator"
)

const subjectFormat = "Your renovation estimate %s"

const textBody = `Hello {{ .Name }},

Thank you for using our renovation estimator. Here is the estimate for your
{{ .Project.PropertyAge }} property in {{ .Where }}.

{{ range $i, $r := .Estimate.Rooms -}}
{{ inc $i }}. {{ $r.RoomType }} ({{ printf "%.1f" $r.Area }} m2): {{ money $r.FinalCost }}
{{ end }}
Materials:   {{ money .Estimate.Summary.Materials }}
Labour:      {{ money .Estimate.Summary.Labor }}
Overhead:    {{ money .Estimate.Summary.Overhead }}
Contingency: {{ money .Estimate.Summary.Contingency }}
Tax:         {{ money .Estimate.Summary.TaxTotal }}

Total: {{ money .Estimate.Total }}

Reference: {{ .EstimateID }} (pricing {{ .Estimate.PricingVersion }})
This is an estimate, not a quotation. Final prices follow a site survey.
`

const htmlBody = `<!DOCTYPE html>
<html>
<body>
<p>Hello {{ .Name }},</p>
<p>Here is the estimate for your {{ .Project.PropertyAge }} property in {{ .Where }}.</p>
<table>
<thead><tr><th>Room</th><th>Area (m&sup2;)</th><th>Cost</th></tr></thead>
<tbody>
{{- range .Estimate.Rooms }}
<tr><td>{{ .RoomType }}</td><td>{{ printf "%.1f" .Area }}</td><td>{{ money .FinalCost }}</td></tr>
{{- end }}
</tbody>
</table>
<p>Tax: {{ money .Estimate.Summary.TaxTotal }}</p>
<p><strong>Total: {{ money .Estimate.Total }}</strong></p>
<p>Reference: {{ .EstimateID }} (pricing {{ .Estimate.PricingVersion }})</p>
<p><small>This is an estimate, not a quotation. Final prices follow a site survey.</small></p>
</body>
</html>
`

const smsBody = `Your renovation estimate for {{ len .Estimate.Rooms }} room(s) is {{ money .Estimate.Total }}. Ref {{ .EstimateID }}`

type messageData struct {
	Name       string
	Where      string
	EstimateID string
	Project    estimator.ProjectInput
	Estimate   *estimator.EstimateResult
}

type renderedMessage struct {
	Subject string
	Text    string
	HTML    string
	SMS     string
}

type renderer struct {
	text *texttemplate.Template
	html *htmltemplate.Template
	sms  *texttemplate.Template
}

func newRenderer() *renderer {
	funcs := map[string]interface{}{
		"inc": func(i int) int { return i + 1 },
		// money is replaced per message with the estimate's currency.
		"money": func(float64) string { return "" },
	}
	return &renderer{
		text: texttemplate.Must(texttemplate.New("text").Funcs(funcs).Parse(textBody)),
		html: htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).Parse(htmlBody)),
		sms:  texttemplate.Must(texttemplate.New("sms").Funcs(funcs).Parse(smsBody)),
	}
}

func (r *renderer) render(input *Input) (*renderedMessage, error) {
	money := func(amount float64) string {
		return estimator.FormatCurrency(amount, input.Estimate.Currency)
	}
	data := messageData{
		Name:       "there",
		Where:      input.Project.Location,
		EstimateID: input.EstimateID,
		Project:    input.Project,
		Estimate:   input.Estimate,
	}
	if input.Recipient != nil && strings.TrimSpace(input.Recipient.Name) != "" {
		data.Name = strings.TrimSpace(input.Recipient.Name)
	}
	if input.Project.City != "" {
		data.Where = input.Project.City
	}

	text, err := r.text.Clone()
	if err != nil {
		return nil, err
	}
	html, err := r.html.Clone()
	if err != nil {
		return nil, err
	}
	sms, err := r.sms.Clone()
	if err != nil {
		return nil, err
	}

	out := &renderedMessage{Subject: fmt.Sprintf(subjectFormat, money(input.Estimate.Total))}
	var buf bytes.Buffer
	if err := text.Funcs(texttemplate.FuncMap{"money": money}).Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	out.Text = buf.String()

	buf.Reset()
	if err := html.Funcs(htmltemplate.FuncMap{"money": money}).Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	out.HTML = buf.String()

	buf.Reset()
	if err := sms.Funcs(texttemplate.FuncMap{"money": money}).Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render sms: %w", err)
	}
	out.SMS = buf.String()
	return out, nil
}
