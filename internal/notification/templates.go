package notification

import (
	"bytes"
	"html/template"
	"strconv"
)

// Line is one row of an order email.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

// OrderSummary feeds both order emails. Amounts are preformatted.
type OrderSummary struct {
	OrderID      int
	CustomerName string
	Email        string
	Phone        string
	Address      string
	City         string
	Department   string
	Notes        string
	Lines        []Line
	Subtotal     string
	Discount     string
	ShippingCost string
	Total        string
	Currency     string
	PaymentID    string
	IsMember     bool
}

var templates = template.Must(template.New("email").Parse(`
{{define "lines"}}<table cellpadding="6" style="border-collapse:collapse">
<tr><th align="left">Product</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td><td align="right">{{.LineTotal}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}} {{.Currency}}<br>
{{if .IsMember}}Member discount: -{{.Discount}} {{.Currency}}<br>{{end}}
Shipping: {{.ShippingCost}} {{.Currency}}<br>
<strong>Total: {{.Total}} {{.Currency}}</strong></p>{{end}}

{{define "operator"}}<h2>New order #{{.OrderID}}</h2>
<p><strong>{{.CustomerName}}</strong> &lt;{{.Email}}&gt;, {{.Phone}}<br>
{{.Address}}, {{.City}}, {{.Department}}</p>
{{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
{{template "lines" .}}
<p>Payment: {{.PaymentID}}</p>{{end}}

{{define "customer"}}<h2>Thank you for your order, {{.CustomerName}}!</h2>
<p>Your order #{{.OrderID}} is confirmed and will be shipped to {{.Address}}, {{.City}}.</p>
{{template "lines" .}}
<p>We will let you know when it leaves our roastery.</p>{{end}}

{{define "welcome"}}<h2>Welcome, {{.}}!</h2>
<p>Your account is ready. As a member you get 10% off every order.</p>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OperatorNotice is the email the shop receives for every paid order.
func OperatorNotice(to string, s OrderSummary) (Email, error) {
	html, err := render("operator", s)
	if err != nil {
		return Email{}, err
	}
	return Email{To: []string{to}, Subject: "New order #" + strconv.Itoa(s.OrderID), HTML: html}, nil
}

// CustomerConfirmation is sent to the address given at checkout.
func CustomerConfirmation(s OrderSummary) (Email, error) {
	html, err := render("customer", s)
	if err != nil {
		return Email{}, err
	}
	return Email{To: []string{s.Email}, Subject: "Your order #" + strconv.Itoa(s.OrderID) + " is confirmed", HTML: html}, nil
}

func Welcome(to, name string) (Email, error) {
	html, err := render("welcome", name)
	if err != nil {
		return Email{}, err
	}
	return Email{To: []string{to}, Subject: "Welcome to the coffee club", HTML: html}, nil
}
