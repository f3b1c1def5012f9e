package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики операций корзины и цикла синхронизации.
type CartMetrics struct {
	// Счётчики мутаций
	itemsAdded    prometheus.Counter
	itemsRemoved  prometheus.Counter
	quantitySets  prometheus.Counter
	cartsCleared  prometheus.Counter
	malformedLoad prometheus.Counter

	// Оформление заказа
	checkouts        prometheus.Counter
	emptyCheckouts   prometheus.Counter
	externalChanges  prometheus.Counter
	highlightPasses  prometheus.Counter

	// Gauge текущего состояния
	itemsInCart    prometheus.Gauge
	cartTotalMinor prometheus.Gauge
}

// NewCartMetrics создаёт метрики корзины в default registry.
func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCartMetricsWithRegisterer создаёт метрики в изолированном registry (для тестов).
func NewCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	return newCartMetricsWithRegisterer(registerer)
}

func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		itemsAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_items_added_total",
			Help: "Total number of add-to-cart operations",
		}),
		itemsRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_items_removed_total",
			Help: "Total number of line items removed from the cart",
		}),
		quantitySets: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_quantity_sets_total",
			Help: "Total number of explicit quantity updates",
		}),
		cartsCleared: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_cleared_total",
			Help: "Total number of cart clear operations",
		}),
		malformedLoad: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_malformed_state_loads_total",
			Help: "Total number of loads that degraded to an empty cart due to malformed state",
		}),
		checkouts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_checkouts_total",
			Help: "Total number of order hand-offs produced",
		}),
		emptyCheckouts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_empty_checkouts_total",
			Help: "Total number of checkout attempts blocked on an empty cart",
		}),
		externalChanges: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_external_changes_total",
			Help: "Total number of cross-context cart changes detected by the poller",
		}),
		highlightPasses: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cart_grid_highlight_passes_total",
			Help: "Total number of grid-wide highlight rebuild passes",
		}),
		itemsInCart: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cart_items",
			Help: "Current total quantity across all cart line items",
		}),
		cartTotalMinor: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "cart_total_minor",
			Help: "Current cart total in minor currency units",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

// RecordItemAdded увеличивает счётчик добавлений.
func (m *CartMetrics) RecordItemAdded() {
	m.itemsAdded.Inc()
}

// RecordItemRemoved увеличивает счётчик удалений позиций.
func (m *CartMetrics) RecordItemRemoved() {
	m.itemsRemoved.Inc()
}

// RecordQuantitySet увеличивает счётчик явных обновлений количества.
func (m *CartMetrics) RecordQuantitySet() {
	m.quantitySets.Inc()
}

// RecordCartCleared увеличивает счётчик полных очисток корзины.
func (m *CartMetrics) RecordCartCleared() {
	m.cartsCleared.Inc()
}

// RecordMalformedLoad фиксирует деградацию к пустой корзине при чтении состояния.
func (m *CartMetrics) RecordMalformedLoad() {
	m.malformedLoad.Inc()
}

// RecordCheckout увеличивает счётчик успешно собранных заказов.
func (m *CartMetrics) RecordCheckout() {
	m.checkouts.Inc()
}

// RecordEmptyCheckout фиксирует заблокированную попытку оформить пустую корзину.
func (m *CartMetrics) RecordEmptyCheckout() {
	m.emptyCheckouts.Inc()
}

// RecordExternalChange фиксирует изменение, обнаруженное poll-and-diff циклом.
func (m *CartMetrics) RecordExternalChange() {
	m.externalChanges.Inc()
}

// RecordHighlightPass фиксирует полную перестройку подсветки грида.
func (m *CartMetrics) RecordHighlightPass() {
	m.highlightPasses.Inc()
}

// SetCartState обновляет gauge-метрики текущего состояния корзины.
func (m *CartMetrics) SetCartState(totalItems int, totalMinor int64) {
	m.itemsInCart.Set(float64(totalItems))
	m.cartTotalMinor.Set(float64(totalMinor))
}
