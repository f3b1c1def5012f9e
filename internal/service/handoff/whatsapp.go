package handoff

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
	"github.com/vladislavdragonenkov/cartsync/internal/metrics"
)

// Options задаёт необязательные зависимости Builder.
type Options struct {
	Logger  *log.Entry
	Metrics *metrics.CartMetrics
}

// Option настраивает Builder.
type Option func(*Options)

// WithLogger задаёт logger для Builder.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics задаёт метрики оформления заказа.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// Builder собирает данные передаваемого заказа и формирует deep link для
// внешнего канала (WhatsApp). Сам канал ничего не гарантирует: "заказ" —
// это предзаполненное сообщение, никаких транзакционных обязательств.
type Builder struct {
	// phone — целевой номер WhatsApp в международном формате без "+".
	phone   string
	logger  *log.Entry
	metrics *metrics.CartMetrics
}

// NewBuilder создаёт Builder для заданного номера WhatsApp.
func NewBuilder(phone string, options ...Option) *Builder {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "handoff")
	}

	return &Builder{
		phone:   strings.TrimPrefix(phone, "+"),
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// BuildSummary собирает плоский список строк заказа из сохранённых позиций
// корзины в их исходном порядке. Пустая корзина блокируется: возвращается
// ErrEmptyCart и никакие данные не передаются дальше.
func (b *Builder) BuildSummary(items domain.Cart) (domain.OrderSummary, error) {
	if len(items) == 0 {
		if b.metrics != nil {
			b.metrics.RecordEmptyCheckout()
		}
		return domain.OrderSummary{}, domain.ErrEmptyCart
	}

	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderLine{
			Brand:          item.Brand,
			Name:           item.Name,
			ProductID:      item.ProductID,
			VariantKey:     item.VariantKey,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.PriceMinor,
			LineTotalMinor: item.LineTotalMinor(),
		})
	}

	summary := domain.OrderSummary{
		Reference:  uuid.NewString(),
		Lines:      lines,
		TotalMinor: items.TotalMinor(),
		CreatedAt:  time.Now().UTC(),
	}

	if b.metrics != nil {
		b.metrics.RecordCheckout()
	}
	b.logger.WithFields(log.Fields{
		"reference":   summary.Reference,
		"lines":       len(summary.Lines),
		"total_minor": summary.TotalMinor,
	}).Info("order summary built")

	return summary, nil
}

// Message формирует текст заказа в том виде, в каком его ожидает получатель.
func (b *Builder) Message(summary domain.OrderSummary) string {
	var sb strings.Builder
	sb.WriteString("Nouvelle commande:\n\n")

	for i, line := range summary.Lines {
		sb.WriteString(fmt.Sprintf("%d. *%s*\n", i+1, line.Brand))
		sb.WriteString(fmt.Sprintf("   %s\n", line.Name))
		sb.WriteString(fmt.Sprintf("   Réf: %s | Taille: %s\n", line.ProductID, line.VariantKey))
		sb.WriteString(fmt.Sprintf("   Qté: %d x %s = %s\n\n",
			line.Quantity, FormatEuroMinor(line.UnitPriceMinor), FormatEuroMinor(line.LineTotalMinor)))
	}

	sb.WriteString(fmt.Sprintf("*Total: %s*\n\n", FormatEuroMinor(summary.TotalMinor)))
	sb.WriteString("Merci pour votre commande !")
	return sb.String()
}

// DeepLink возвращает URL click-to-chat с предзаполненным сообщением.
func (b *Builder) DeepLink(summary domain.OrderSummary) string {
	link := url.URL{
		Scheme:   "https",
		Host:     "wa.me",
		Path:     "/" + b.phone,
		RawQuery: "text=" + url.QueryEscape(b.Message(summary)),
	}
	return link.String()
}

// FormatEuroMinor форматирует минимальные единицы как сумму в евро
// с запятой в роли десятичного разделителя: 4250 -> "42,50 €".
func FormatEuroMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d,%02d €", sign, minor/100, minor%100)
}
