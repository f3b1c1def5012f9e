package domain

import "errors"

var (
	// ErrEmptyCart возвращается при попытке оформить заказ из пустой корзины.
	// Это блокирующее уведомление пользователю: передача заказа не начинается.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrStateUnavailable сигнализирует о недоступности durable-хранилища состояния.
	ErrStateUnavailable = errors.New("cart state store unavailable")
	// ErrQuantityInvalid используется на транспортном слое для некорректного количества в запросе.
	ErrQuantityInvalid = errors.New("quantity must be a non-negative integer")
	// ErrItemFieldsRequired возвращается, когда в запросе добавления нет идентичности позиции.
	ErrItemFieldsRequired = errors.New("product_id and variant_key are required")
)

// IsEmptyCart проверяет, является ли ошибка блокировкой пустой корзины.
func IsEmptyCart(err error) bool {
	return errors.Is(err, ErrEmptyCart)
}
