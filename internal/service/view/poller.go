package view

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsync/internal/service/cart"
)

// defaultPollInterval — период сверки с durable-хранилищем.
const defaultPollInterval = 2 * time.Second

// PollerOptions задаёт параметры poll-цикла.
type PollerOptions struct {
	Logger       *log.Entry
	PollInterval time.Duration
}

// PollerOption настраивает Poller.
type PollerOption func(*PollerOptions)

// WithPollInterval задаёт частоту опроса durable-хранилища.
func WithPollInterval(interval time.Duration) PollerOption {
	return func(opts *PollerOptions) {
		opts.PollInterval = interval
	}
}

// WithPollerLogger задаёт logger для poll-цикла.
func WithPollerLogger(logger *log.Entry) PollerOption {
	return func(opts *PollerOptions) {
		opts.Logger = logger
	}
}

// Poller — единственный механизм обнаружения мутаций, сделанных другим
// контекстом исполнения над общим durable-хранилищем: push-уведомлений между
// контекстами может не быть вовсе. Цикл сравнивает свежепрочитанное состояние
// со снимком Store структурно; при расхождении снимок заменяется и все
// поверхности перестраиваются.
//
// Poller только обнаруживает сам факт изменения — ни что изменилось, ни в
// каком порядке относительно локальных операций. Локальная запись,
// конкурентная с необнаруженным внешним изменением, молча перетирает его
// (last write wins).
type Poller struct {
	store        *cart.Store
	sync         *Synchronizer
	logger       *log.Entry
	pollInterval time.Duration
}

// NewPoller создаёт poll-цикл над Store и синхронизатором.
func NewPoller(store *cart.Store, sync *Synchronizer, options ...PollerOption) *Poller {
	opts := PollerOptions{
		PollInterval: defaultPollInterval,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-poller")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	return &Poller{
		store:        store,
		sync:         sync,
		logger:       logger,
		pollInterval: opts.PollInterval,
	}
}

// Run запускает периодический опрос до отмены ctx. Тикер гасится при
// отмене контекста, чтобы не утекали таймеры при демонтаже страницы.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один цикл опроса: читает сохранённое состояние и,
// если оно отличается от снимка, применяет его. Повреждённое состояние
// обрабатывается так же, как на пути загрузки — деградация к пустой корзине.
func (p *Poller) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	fresh := p.store.ReadPersisted(ctx)
	if fresh.Equal(p.store.Items()) {
		return
	}

	p.logger.WithField("items", fresh.TotalItems()).Debug("cart changed by another context")
	p.sync.ApplyExternal(fresh)
}
