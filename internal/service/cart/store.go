package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
	"github.com/vladislavdragonenkov/cartsync/internal/metrics"
)

// AddItemRequest упаковывает данные карточки товара, необходимые для создания
// позиции корзины. Презентационные поля денормализуются здесь и больше
// не пересчитываются.
type AddItemRequest struct {
	ProductID  string
	VariantKey string
	PriceMinor int64
	Name       string
	Brand      string
	LineLabel  string
	ImageRef   string
}

// Options задаёт необязательные зависимости Store.
type Options struct {
	Logger   *log.Entry
	Notifier domain.ChangeNotifier
	Metrics  *metrics.CartMetrics
}

// Option настраивает Store.
type Option func(*Options)

// WithLogger задаёт logger для Store.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithNotifier задаёт канал уведомлений об изменениях состояния.
func WithNotifier(notifier domain.ChangeNotifier) Option {
	return func(opts *Options) {
		opts.Notifier = notifier
	}
}

// WithMetrics задаёт метрики операций корзины.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// Store — единственный источник истины о содержимом корзины в рамках одного
// контекста исполнения. Все мутации проходят через него и завершаются записью
// полного состояния в durable-хранилище; презентационные поверхности читают
// состояние только через query-методы.
//
// Между контекстами исполнения (другая вкладка, другой процесс) упорядочивания
// нет: хранилище перезаписывается целиком, действует last write wins.
type Store struct {
	mu       sync.Mutex
	state    domain.StateStore
	notifier domain.ChangeNotifier
	metrics  *metrics.CartMetrics
	logger   *log.Entry

	// origin идентифицирует этот контекст исполнения в уведомлениях об изменениях.
	origin string
	items  domain.Cart
}

// NewStore создаёт Cart Store поверх durable-хранилища состояния.
func NewStore(state domain.StateStore, options ...Option) *Store {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-store")
	}

	return &Store{
		state:    state,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   logger,
		origin:   uuid.NewString(),
	}
}

// Origin возвращает идентификатор контекста исполнения этого Store.
func (s *Store) Origin() string {
	return s.origin
}

// Load читает сохранённое состояние и делает его текущим снимком.
// Отсутствующее или повреждённое состояние деградирует к пустой корзине:
// ошибка никогда не поднимается к вызывающему, только warn в логе.
func (s *Store) Load(ctx context.Context) domain.Cart {
	loaded := s.ReadPersisted(ctx)

	s.mu.Lock()
	s.items = loaded
	s.mu.Unlock()

	s.publishState(loaded)
	return loaded.Clone()
}

// ReadPersisted декодирует состояние из хранилища, не меняя текущий снимок.
// Путь загрузки и poll-цикл обязаны обрабатывать повреждённое состояние
// одинаково, поэтому оба используют этот метод.
func (s *Store) ReadPersisted(ctx context.Context) domain.Cart {
	data, ok, err := s.state.Load(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read cart state, degrading to empty cart")
		if s.metrics != nil {
			s.metrics.RecordMalformedLoad()
		}
		return domain.Cart{}
	}
	if !ok || len(data) == 0 {
		return domain.Cart{}
	}

	var loaded domain.Cart
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.WithError(err).Warn("malformed cart state, degrading to empty cart")
		if s.metrics != nil {
			s.metrics.RecordMalformedLoad()
		}
		return domain.Cart{}
	}
	return loaded
}

// AddItem добавляет товар в корзину. Если позиция с той же парой
// (ProductID, VariantKey) уже есть, её количество увеличивается на 1;
// иначе в конец добавляется новая позиция с количеством 1.
func (s *Store) AddItem(ctx context.Context, req AddItemRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.items.Clone()
	if idx := next.Find(req.ProductID, req.VariantKey); idx >= 0 {
		next[idx].Quantity++
	} else {
		next = append(next, domain.LineItem{
			ProductID:  req.ProductID,
			VariantKey: req.VariantKey,
			Name:       req.Name,
			Brand:      req.Brand,
			LineLabel:  req.LineLabel,
			ImageRef:   req.ImageRef,
			PriceMinor: req.PriceMinor,
			Quantity:   1,
		})
	}

	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordItemAdded()
	}
	s.logger.WithFields(log.Fields{
		"product_id":  req.ProductID,
		"variant_key": req.VariantKey,
	}).Debug("item added to cart")
	return nil
}

// RemoveItem удаляет позицию с заданной идентичностью.
// Отсутствие позиции — no-op, не ошибка.
func (s *Store) RemoveItem(ctx context.Context, productID, variantKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.items.Find(productID, variantKey)
	if idx < 0 {
		return nil
	}

	next := s.items.Clone()
	next = append(next[:idx], next[idx+1:]...)

	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordItemRemoved()
	}
	s.logger.WithFields(log.Fields{
		"product_id":  productID,
		"variant_key": variantKey,
	}).Debug("item removed from cart")
	return nil
}

// SetQuantity устанавливает количество позиции. Значение <= 0 эквивалентно
// удалению; отсутствие позиции — no-op. Верхней границы нет.
func (s *Store) SetQuantity(ctx context.Context, productID, variantKey string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID, variantKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.items.Find(productID, variantKey)
	if idx < 0 {
		return nil
	}

	next := s.items.Clone()
	next[idx].Quantity = quantity

	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordQuantitySet()
	}
	return nil
}

// Clear опустошает корзину и сохраняет пустое состояние.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(ctx, domain.Cart{}); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordCartCleared()
	}
	s.logger.Debug("cart cleared")
	return nil
}

// TotalItemCount возвращает суммарное количество единиц; 0 для пустой корзины.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalItems()
}

// TotalPriceMinor возвращает сумму корзины в минимальных денежных единицах.
func (s *Store) TotalPriceMinor() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalMinor()
}

// Items возвращает копию текущего снимка корзины в сохранённом порядке.
func (s *Store) Items() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// Replace заменяет текущий снимок состоянием, наблюдённым извне (poll-цикл
// или уведомление из другого контекста). Запись в хранилище не выполняется:
// состояние уже сохранено тем контекстом, который его изменил.
func (s *Store) Replace(snapshot domain.Cart) {
	s.mu.Lock()
	s.items = snapshot.Clone()
	s.mu.Unlock()

	s.publishState(snapshot)
}

// persistLocked сериализует и сохраняет next, подменяя снимок только после
// успешной записи: ни одна операция не наблюдает частично применённую мутацию.
// Вызывается только под s.mu.
func (s *Store) persistLocked(ctx context.Context, next domain.Cart) error {
	if next == nil {
		next = domain.Cart{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart state: %w", err)
	}

	if err := s.state.Save(ctx, data); err != nil {
		return fmt.Errorf("persist cart state: %w", err)
	}
	s.items = next

	s.publishState(next)
	s.notifyChanged(ctx)
	return nil
}

// publishState обновляет gauge-метрики текущего состояния.
func (s *Store) publishState(items domain.Cart) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetCartState(items.TotalItems(), items.TotalMinor())
}

// notifyChanged посылает best-effort уведомление другим контекстам.
// Потеря уведомления не ломает консистентность: её догонит poll-цикл.
func (s *Store) notifyChanged(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyChanged(ctx, s.origin); err != nil {
		s.logger.WithError(err).Warn("failed to publish cart change notification")
	}
}
