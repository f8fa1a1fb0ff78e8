// Package render merges an invoice, its client, and the business profile
// into an HTML document using a handlebars-style template: {{path.to.value}}
// substitution, {{#if}} conditionals, {{#each}} iteration, and an unescaped
// {{{styles}}} injection point reserved for the stylesheet. Referencing an
// undefined path renders an empty string, never an error, so a missing
// optional field cannot break rendering.
package render

import (
	"github.com/aymerick/raymond"

	"github.com/diewo77/billing-core/internal/apperr"
	"github.com/diewo77/billing-core/internal/models"
)

// Check syntax-checks a template body. Template CRUD calls this before a
// body may be stored; the returned error names the parse failure.
func Check(body string) error {
	if _, err := raymond.Parse(body); err != nil {
		return apperr.Wrap(err, apperr.KindRender, "template body does not parse")
	}
	return nil
}

// Document renders tpl against ctx (see BuildContext) into a complete HTML
// document. The template's stylesheet is exposed to the body as the raw
// "styles" value.
func Document(tpl *models.Template, ctx map[string]interface{}) (string, error) {
	t, err := raymond.Parse(tpl.HTML)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindRender, "template %q does not parse", tpl.Name)
	}
	ctx["styles"] = raymond.SafeString(tpl.CSS)
	out, err := t.Exec(ctx)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindRender, "template %q failed to render", tpl.Name)
	}
	return out, nil
}
