package view

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
	"github.com/vladislavdragonenkov/cartsync/internal/metrics"
	"github.com/vladislavdragonenkov/cartsync/internal/service/cart"
)

// Options задаёт поверхности и зависимости синхронизатора.
// Любая поверхность может отсутствовать: страница корзины не имеет грида,
// грид-страница может не иметь модального окна.
type Options struct {
	Badge   BadgeSurface
	Modal   ModalSurface
	Grid    GridSurface
	Logger  *log.Entry
	Metrics *metrics.CartMetrics
}

// Option настраивает Synchronizer.
type Option func(*Options)

// WithBadge регистрирует индикатор количества.
func WithBadge(badge BadgeSurface) Option {
	return func(opts *Options) {
		opts.Badge = badge
	}
}

// WithModal регистрирует модальное окно корзины.
func WithModal(modal ModalSurface) Option {
	return func(opts *Options) {
		opts.Modal = modal
	}
}

// WithGrid регистрирует грид карточек товаров.
func WithGrid(grid GridSurface) Option {
	return func(opts *Options) {
		opts.Grid = grid
	}
}

// WithLogger задаёт logger синхронизатора.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики синхронизатора.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// Synchronizer приводит все презентационные поверхности в соответствие
// с Cart Store после каждой мутации. Store о поверхностях не знает;
// зависимость направлена только сюда.
type Synchronizer struct {
	store   *cart.Store
	badge   BadgeSurface
	modal   ModalSurface
	grid    GridSurface
	logger  *log.Entry
	metrics *metrics.CartMetrics
}

// NewSynchronizer создаёт синхронизатор поверх Cart Store.
func NewSynchronizer(store *cart.Store, options ...Option) *Synchronizer {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "view-sync")
	}

	return &Synchronizer{
		store:   store,
		badge:   opts.Badge,
		modal:   opts.Modal,
		grid:    opts.Grid,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// RefreshAll перечитывает состояние и обновляет все зарегистрированные
// поверхности. Вызывается после каждой локальной мутации и после обнаружения
// внешнего изменения.
func (s *Synchronizer) RefreshAll() {
	s.RefreshBadge()
	s.RefreshModal()
	s.RefreshGridHighlights()
}

// RefreshBadge обновляет числовой индикатор; при нуле он скрывается.
func (s *Synchronizer) RefreshBadge() {
	if s.badge == nil {
		return
	}
	count := s.store.TotalItemCount()
	s.badge.SetCount(count, count > 0)
}

// RefreshModal полностью перестраивает содержимое модального окна из текущего
// состояния Store. Закрытое окно не трогается; открытое остаётся открытым,
// заменяется только содержимое.
func (s *Synchronizer) RefreshModal() {
	if s.modal == nil || !s.modal.IsOpen() {
		return
	}
	s.modal.Render(s.buildModalContent())
}

// OpenModal переводит оверлей в состояние Open. Существующий открытый
// экземпляр сначала принудительно закрывается, чтобы не было дубликатов.
func (s *Synchronizer) OpenModal() {
	if s.modal == nil {
		return
	}
	if s.modal.IsOpen() {
		s.modal.Close()
	}
	s.modal.Open()
	s.modal.Render(s.buildModalContent())
}

// CloseModal переводит оверлей в состояние Closed.
func (s *Synchronizer) CloseModal() {
	if s.modal == nil || !s.modal.IsOpen() {
		return
	}
	s.modal.Close()
}

// RefreshGridHighlights перестраивает маркеры "в корзине" для всех карточек.
// Правило одно для всех путей: карточка подсвечена, если в корзине есть
// хотя бы один вариант её товара.
func (s *Synchronizer) RefreshGridHighlights() {
	if s.grid == nil {
		return
	}

	items := s.store.Items()
	for _, card := range s.grid.Cards() {
		card.SetInCart(items.ContainsProduct(card.ProductID()))
	}

	if s.metrics != nil {
		s.metrics.RecordHighlightPass()
	}
}

// ApplyCardHighlight — точечный путь обновления одной карточки сразу после
// add/remove её товара. Правило то же, что и у полного прохода по гриду.
func (s *Synchronizer) ApplyCardHighlight(productID string) {
	if s.grid == nil {
		return
	}

	items := s.store.Items()
	inCart := items.ContainsProduct(productID)
	for _, card := range s.grid.Cards() {
		if card.ProductID() == productID {
			card.SetInCart(inCart)
		}
	}
}

// ApplyExternal принимает состояние, записанное другим контекстом исполнения:
// заменяет снимок Store и полностью перестраивает поверхности.
func (s *Synchronizer) ApplyExternal(snapshot domain.Cart) {
	s.store.Replace(snapshot)
	if s.metrics != nil {
		s.metrics.RecordExternalChange()
	}
	s.logger.WithField("items", snapshot.TotalItems()).Debug("external cart change applied")
	s.RefreshAll()
}

// buildModalContent выводит содержимое модального окна из текущего снимка.
func (s *Synchronizer) buildModalContent() ModalContent {
	items := s.store.Items()
	if len(items) == 0 {
		return ModalContent{Empty: true}
	}

	lines := make([]ModalLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, ModalLine{
			ProductID:      item.ProductID,
			VariantKey:     item.VariantKey,
			Brand:          item.Brand,
			Name:           item.Name,
			ImageRef:       item.ImageRef,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.PriceMinor,
			LineTotalMinor: item.LineTotalMinor(),
		})
	}

	return ModalContent{
		Lines:      lines,
		TotalMinor: items.TotalMinor(),
	}
}
