package notify

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"storefront-svc/models"

	"github.com/shopspring/decimal"
)

const (
	noEmail     = "—"
	selfPickup  = "Самовывоз"
	sellerTitle = "Новый заказ №"
	buyerTitle  = "Ваш заказ №"
)

var funcs = map[string]any{
	"upper": strings.ToUpper,
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

const plainBody = `Новый заказ №{{.ID}}

Товары:
{{range .Items}}{{.Name}} — Кол-во: {{.Quantity}}, Цена: {{money .LineTotal}}
{{end}}
Общая стоимость заказа: {{money .Total}}

Адрес доставки:
{{.Address}}

Имя клиента: {{upper .FirstName}}
Фамилия клиента: {{upper .LastName}}
Телефон: {{.Phone}}
Email: {{.Email}}
`

const htmlBody = `<!DOCTYPE html>
<html>
<body>
<h2>Спасибо за заказ!</h2>
<p>Номер заказа: <strong>{{.ID}}</strong></p>
<table>
<tr><th>Товар</th><th>Кол-во</th><th>Цена</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{money .LineTotal}}</td></tr>
{{end}}</table>
<p>Общая стоимость заказа: <strong>{{money .Total}}</strong></p>
<p>Адрес доставки: {{.Address}}</p>
<p>{{upper .FirstName}} {{upper .LastName}}, {{.Phone}}</p>
</body>
</html>
`

var (
	plainTmpl = template.Must(template.New("plain").Funcs(funcs).Parse(plainBody))
	htmlTmpl  = htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).Parse(htmlBody))
)

type emailView struct {
	ID        string
	Items     []models.OrderItem
	Total     decimal.Decimal
	Address   string
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

func newEmailView(order models.Order) emailView {
	v := emailView{
		ID:        order.ID.String(),
		Items:     order.Items,
		Total:     order.Total(),
		Address:   order.Delivery.Address,
		FirstName: order.Contact.FirstName,
		LastName:  order.Contact.LastName,
		Phone:     order.Contact.PhoneNumber,
		Email:     order.Contact.Email,
	}
	if v.Address == "" {
		v.Address = selfPickup
	}
	if v.Email == "" {
		v.Email = noEmail
	}
	return v
}

func sellerMessage(to string, order models.Order) (Message, error) {
	var text bytes.Buffer
	if err := plainTmpl.Execute(&text, newEmailView(order)); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: sellerTitle + order.ID.String(),
		Text:    text.String(),
	}, nil
}

func customerMessage(order models.Order) (Message, error) {
	view := newEmailView(order)

	var text, html bytes.Buffer
	if err := plainTmpl.Execute(&text, view); err != nil {
		return Message{}, err
	}
	if err := htmlTmpl.Execute(&html, view); err != nil {
		return Message{}, err
	}
	return Message{
		To:      order.Contact.Email,
		Subject: buyerTitle + order.ID.String(),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
