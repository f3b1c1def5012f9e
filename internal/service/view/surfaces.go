package view

// Поверхности рендерятся внешним кодом (браузерный слой, тесты); синхронизатор
// знает о них только через эти интерфейсы и никогда не хранит их состояние сам —
// после каждой мутации содержимое выводится заново из Cart Store.

// BadgeSurface — числовой индикатор количества товаров.
// При нуле индикатор скрывается.
type BadgeSurface interface {
	SetCount(count int, visible bool)
}

// ModalLine — строка содержимого модального окна корзины.
type ModalLine struct {
	ProductID      string
	VariantKey     string
	Brand          string
	Name           string
	ImageRef       string
	Quantity       int
	UnitPriceMinor int64
	LineTotalMinor int64
}

// ModalContent — полное содержимое модального окна: либо явное
// пустое состояние, либо список строк с итогом.
type ModalContent struct {
	Empty      bool
	Lines      []ModalLine
	TotalMinor int64
}

// ModalSurface — оверлей корзины. Состояния только два: Closed и Open.
// Повторное открытие сначала принудительно закрывает существующий экземпляр,
// чтобы не плодить дубликаты; Render при открытом окне заменяет содержимое
// на месте, не меняя состояния.
type ModalSurface interface {
	IsOpen() bool
	Open()
	Close()
	Render(content ModalContent)
}

// Card — карточка товара в гриде с маркером "в корзине".
type Card interface {
	ProductID() string
	SetInCart(inCart bool)
}

// GridSurface отдаёт текущий набор отрисованных карточек.
// Набор может меняться между вызовами (фильтрация, поиск), поэтому
// синхронизатор каждый раз запрашивает его заново.
type GridSurface interface {
	Cards() []Card
}
