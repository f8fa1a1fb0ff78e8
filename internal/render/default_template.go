package render

import "github.com/diewo77/billing-core/internal/models"

// DefaultTemplate returns the built-in invoice template seeded when the
// template table is empty, so PDF generation works out of the box.
func DefaultTemplate() models.Template {
	return models.Template{
		Name:        "Classic",
		Description: "Built-in single-column invoice layout",
		HTML:        defaultHTML,
		CSS:         defaultCSS,
		IsDefault:   true,
	}
}

const defaultHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>{{{styles}}}</style>
</head>
<body>
  <header>
    <div class="business">
      <h1>{{business.name}}</h1>
      {{#if business.address}}<p>{{business.address}}</p>{{/if}}
      {{#if business.email}}<p>{{business.email}}</p>{{/if}}
    </div>
    <div class="meta">
      <h2>Invoice {{invoice.number}}</h2>
      <p>Issued: {{invoice.issueDate}}</p>
      <p>Due: {{invoice.dueDate}}</p>
    </div>
  </header>

  <section class="bill-to">
    <h3>Bill To</h3>
    <p class="client-name">{{client.name}}</p>
    {{#if client.company}}<p>{{client.company}}</p>{{/if}}
    {{#if client.address.street}}<p>{{client.address.street}}</p>{{/if}}
    {{#if client.address.city}}<p>{{client.address.city}}, {{client.address.state}} {{client.address.zip}}</p>{{/if}}
    {{#if client.email}}<p>{{client.email}}</p>{{/if}}
    {{#if client.taxId}}<p>Tax ID: {{client.taxId}}</p>{{/if}}
  </section>

  <table class="items">
    <thead>
      <tr><th>Description</th><th>Qty</th><th>Rate</th><th>Amount</th></tr>
    </thead>
    <tbody>
      {{#each invoice.items}}
      <tr>
        <td>
          {{description}}
          {{#if details}}<div class="details">{{details}}</div>{{/if}}
        </td>
        <td>{{quantity}}</td>
        <td>{{rate}}</td>
        <td>{{total}}</td>
      </tr>
      {{/each}}
    </tbody>
  </table>

  <section class="totals">
    <div><span>Subtotal</span><span>{{invoice.subtotal}}</span></div>
    <div><span>Tax ({{invoice.taxRate}})</span><span>{{invoice.tax}}</span></div>
    {{#if invoice.hasDiscount}}
    <div><span>Discount</span><span>-{{invoice.discount}}</span></div>
    {{/if}}
    <div class="grand"><span>Total</span><span>{{invoice.total}}</span></div>
  </section>

  {{#if invoice.notes}}
  <footer class="notes">
    <h4>Notes</h4>
    <p>{{invoice.notes}}</p>
  </footer>
  {{/if}}
</body>
</html>`

const defaultCSS = `body {
  font-family: Helvetica, Arial, sans-serif;
  color: #1f2933;
  font-size: 13px;
  margin: 0;
}
header {
  display: flex;
  justify-content: space-between;
  border-bottom: 3px solid #1f2933;
  padding-bottom: 16px;
  margin-bottom: 24px;
}
h1 { font-size: 22px; margin: 0 0 4px; }
h2 { font-size: 18px; margin: 0 0 4px; }
h3, h4 { text-transform: uppercase; font-size: 11px; letter-spacing: 1px; color: #616e7c; }
.meta { text-align: right; }
.meta p, .business p, .bill-to p { margin: 2px 0; }
.client-name { font-weight: bold; }
table.items {
  width: 100%;
  border-collapse: collapse;
  margin: 24px 0;
}
table.items th {
  text-align: left;
  background: #f5f7fa;
  border-bottom: 2px solid #cbd2d9;
  padding: 8px;
}
table.items td {
  border-bottom: 1px solid #e4e7eb;
  padding: 8px;
  vertical-align: top;
}
table.items .details { color: #616e7c; font-size: 11px; margin-top: 2px; }
.totals { width: 280px; margin-left: auto; }
.totals div {
  display: flex;
  justify-content: space-between;
  padding: 4px 8px;
}
.totals .grand {
  border-top: 2px solid #1f2933;
  font-weight: bold;
  font-size: 15px;
}
.notes { margin-top: 32px; color: #3e4c59; }`
