package domain

// LineItem представляет одну позицию корзины: конкретный товар в конкретном варианте.
type LineItem struct {
	// ProductID — стабильный идентификатор товара в каталоге.
	ProductID string `json:"product_id"`
	// VariantKey — ключ варианта (например, объём "50ml"); вместе с ProductID образует идентичность позиции.
	VariantKey string `json:"variant_key"`
	// Name, Brand, LineLabel — денормализованные презентационные поля, фиксируются в момент добавления.
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	LineLabel string `json:"line_label"`
	// ImageRef — ссылка на изображение товара, тоже презентационная.
	ImageRef string `json:"image_ref"`
	// PriceMinor — цена за единицу в минимальных денежных единицах (центы),
	// зафиксированная в момент добавления. Позже не пересчитывается: корзина
	// не синхронизируется с изменениями цен каталога.
	PriceMinor int64 `json:"price_minor"`
	// Quantity — количество единиц, всегда >= 1 для сохранённой позиции.
	Quantity int `json:"quantity"`
}

// SameIdentity сообщает, относится ли other к той же паре (товар, вариант).
func (li LineItem) SameIdentity(productID, variantKey string) bool {
	return li.ProductID == productID && li.VariantKey == variantKey
}

// LineTotalMinor возвращает стоимость позиции: цена за единицу * количество.
func (li LineItem) LineTotalMinor() int64 {
	return li.PriceMinor * int64(li.Quantity)
}

// Cart — упорядоченная последовательность позиций. Порядок вставки сохраняется
// и виден пользователю, поэтому позиции никогда не пересортировываются.
type Cart []LineItem

// Find возвращает индекс позиции с заданной идентичностью или -1.
func (c Cart) Find(productID, variantKey string) int {
	for i, item := range c {
		if item.SameIdentity(productID, variantKey) {
			return i
		}
	}
	return -1
}

// ContainsProduct сообщает, есть ли в корзине хотя бы один вариант товара.
// Это правило используется для подсветки карточек в гриде.
func (c Cart) ContainsProduct(productID string) bool {
	for _, item := range c {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// ContainsVariant проверяет наличие конкретной пары (товар, вариант).
func (c Cart) ContainsVariant(productID, variantKey string) bool {
	return c.Find(productID, variantKey) >= 0
}

// TotalItems возвращает суммарное количество единиц по всем позициям; 0 для пустой корзины.
func (c Cart) TotalItems() int {
	total := 0
	for _, item := range c {
		total += item.Quantity
	}
	return total
}

// TotalMinor возвращает суммарную стоимость корзины в минимальных единицах.
// Форматирование валюты — забота презентационного слоя.
func (c Cart) TotalMinor() int64 {
	var total int64
	for _, item := range c {
		total += item.LineTotalMinor()
	}
	return total
}

// Equal сравнивает корзины структурно: те же позиции, в том же порядке,
// с теми же количествами. Используется poll-and-diff циклом для обнаружения
// изменений, сделанных другим контекстом исполнения.
func (c Cart) Equal(other Cart) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone возвращает независимую копию, чтобы снаружи нельзя было мутировать
// внутреннее состояние хранилища.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
