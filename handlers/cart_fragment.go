package handlers

import (
	"bytes"
	"html/template"

	"storefront-svc/models"
)

var cartFragment = template.Must(template.New("cart").Funcs(template.FuncMap{
	"money": money,
}).Parse(`<ul class="cart-items">
{{range .Lines}}<li data-cart-id="{{.ID}}">
<span class="name">{{.Product.Name}}</span>
<span class="quantity">{{.Quantity}}</span>
<span class="price">{{money .Product.SellPrice}}</span>
<span class="line-total">{{money .LineTotal}}</span>
</li>
{{end}}</ul>
<p class="cart-total">Итого: <strong>{{.TotalQuantity}}</strong> шт. на <strong>{{money .TotalSum}}</strong></p>
`))

func renderCart(summary models.CartSummary) (string, error) {
	var buf bytes.Buffer
	if err := cartFragment.Execute(&buf, summary); err != nil {
		return "", err
	}
	return buf.String(), nil
}
