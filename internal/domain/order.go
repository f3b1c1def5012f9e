package domain

import "time"

// OrderLine — плоская строка передаваемого заказа. Поля повторяют позицию
// корзины в её сохранённом порядке плюс вычисленная стоимость строки.
type OrderLine struct {
	Brand          string `json:"brand"`
	Name           string `json:"name"`
	ProductID      string `json:"product_id"`
	VariantKey     string `json:"variant_key"`
	Quantity       int    `json:"quantity"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	LineTotalMinor int64  `json:"line_total_minor"`
}

// OrderSummary — данные, передаваемые внешнему каналу оформления заказа.
// Итог считается ровно так же, как Cart.TotalMinor.
type OrderSummary struct {
	// Reference — идентификатор передачи заказа, нужен только для логов и трассировки.
	Reference  string      `json:"reference"`
	Lines      []OrderLine `json:"lines"`
	TotalMinor int64       `json:"total_minor"`
	CreatedAt  time.Time   `json:"created_at"`
}
