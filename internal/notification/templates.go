package notification

import (
	"bytes"
	"html/template"

	"storefront-be/internal/order"
)

const layout = `{{define "items"}}<table cellpadding="4">
{{range .Order.Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>₹{{.LineTotal.StringFixed 2}}</td></tr>
{{end}}<tr><td colspan="2"><strong>Total</strong></td><td><strong>₹{{.Order.TotalPrice.StringFixed 2}}</strong></td></tr>
</table>{{end}}`

var bodies = map[string]string{
	"order_placed": `<p>Hi {{.Order.Customer.Name}},</p>
<p>Thanks for your order <strong>#{{.ShortID}}</strong>. We will let you know when it ships.</p>
{{template "items" .}}
<p>Shipping to: {{.Order.Shipping.ReceiverName}}, {{.Order.Shipping.Line1}}, {{.Order.Shipping.City}} {{.Order.Shipping.PostalCode}}</p>`,

	"order_shipped": `<p>Hi {{.Order.Customer.Name}},</p>
<p>Your order <strong>#{{.ShortID}}</strong> is on its way.</p>
{{with .Order.ShippingPartner}}<p>Carrier: {{.}}</p>{{end}}
{{with .Order.ShippingID}}<p>Tracking number: {{.}}</p>{{end}}
{{template "items" .}}`,

	"order_delivered": `<p>Hi {{.Order.Customer.Name}},</p>
<p>Your order <strong>#{{.ShortID}}</strong> has been delivered. Enjoy!</p>`,

	"order_cancelled": `<p>Hi {{.Order.Customer.Name}},</p>
<p>Your order <strong>#{{.ShortID}}</strong> has been cancelled.</p>
{{template "items" .}}`,

	"payment_succeeded": `<p>Hi {{.Order.Customer.Name}},</p>
<p>We received your payment of ₹{{.Order.TotalPrice.StringFixed 2}} for order <strong>#{{.ShortID}}</strong>.</p>`,

	"payment_failed": `<p>Hi {{.Order.Customer.Name}},</p>
<p>The payment for order <strong>#{{.ShortID}}</strong> did not go through. No money was taken; you can try again from your orders page.</p>`,
}

var subjects = map[string]string{
	"order_placed":      "Order confirmed",
	"order_shipped":     "Your order has shipped",
	"order_delivered":   "Your order was delivered",
	"order_cancelled":   "Your order was cancelled",
	"payment_succeeded": "Payment received",
	"payment_failed":    "Payment failed",
}

var templates = parseTemplates()

func parseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for name, body := range bodies {
		t := template.Must(template.New("layout").Parse(layout))
		out[name] = template.Must(t.New(name).Parse(body))
	}
	return out
}

type view struct {
	Order   *order.Order
	ShortID string
}

func render(name string, o *order.Order) (string, error) {
	var buf bytes.Buffer
	id := o.ID.String()
	if err := templates[name].ExecuteTemplate(&buf, name, view{Order: o, ShortID: id[:8]}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
