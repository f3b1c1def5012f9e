package view_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
	"github.com/vladislavdragonenkov/cartsync/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsync/internal/service/view"
	"github.com/vladislavdragonenkov/cartsync/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

type fakeBadge struct {
	count   int
	visible bool
	calls   int
}

func (b *fakeBadge) SetCount(count int, visible bool) {
	b.count = count
	b.visible = visible
	b.calls++
}

type fakeModal struct {
	open       bool
	opens      int
	closes     int
	renders    int
	lastRender view.ModalContent
}

func (m *fakeModal) IsOpen() bool { return m.open }

func (m *fakeModal) Open() {
	m.open = true
	m.opens++
}

func (m *fakeModal) Close() {
	m.open = false
	m.closes++
}

func (m *fakeModal) Render(content view.ModalContent) {
	m.renders++
	m.lastRender = content
}

type fakeCard struct {
	productID string
	inCart    bool
	sets      int
}

func (c *fakeCard) ProductID() string { return c.productID }

func (c *fakeCard) SetInCart(inCart bool) {
	c.inCart = inCart
	c.sets++
}

type fakeGrid struct {
	cards []*fakeCard
}

func (g *fakeGrid) Cards() []view.Card {
	out := make([]view.Card, 0, len(g.cards))
	for _, c := range g.cards {
		out = append(out, c)
	}
	return out
}

func newFixture(t *testing.T) (*cart.Store, *view.Synchronizer, *fakeBadge, *fakeModal, *fakeGrid) {
	t.Helper()

	store := cart.NewStore(memory.NewStateStore(), cart.WithLogger(loggerForTests()))
	store.Load(context.Background())

	badge := &fakeBadge{}
	modal := &fakeModal{}
	grid := &fakeGrid{cards: []*fakeCard{
		{productID: "P1"},
		{productID: "P2"},
	}}

	sync := view.NewSynchronizer(store,
		view.WithBadge(badge),
		view.WithModal(modal),
		view.WithGrid(grid),
		view.WithLogger(loggerForTests()),
	)
	return store, sync, badge, modal, grid
}

func addItem(t *testing.T, store *cart.Store, productID, variantKey string, priceMinor int64) {
	t.Helper()
	err := store.AddItem(context.Background(), cart.AddItemRequest{
		ProductID:  productID,
		VariantKey: variantKey,
		PriceMinor: priceMinor,
		Brand:      "Maison Noire",
		Name:       "Aventura",
	})
	require.NoError(t, err)
}

func TestSynchronizer_BadgeHiddenAtZero(t *testing.T) {
	_, sync, badge, _, _ := newFixture(t)

	sync.RefreshBadge()
	require.Equal(t, 0, badge.count)
	require.False(t, badge.visible)
}

func TestSynchronizer_BadgeShowsTotalQuantity(t *testing.T) {
	store, sync, badge, _, _ := newFixture(t)

	addItem(t, store, "P1", "50ml", 4250)
	addItem(t, store, "P1", "50ml", 4250)
	addItem(t, store, "P2", "100ml", 7000)

	sync.RefreshBadge()
	require.Equal(t, 3, badge.count)
	require.True(t, badge.visible)
}

func TestSynchronizer_RefreshModalSkipsClosed(t *testing.T) {
	_, sync, _, modal, _ := newFixture(t)

	sync.RefreshModal()
	require.Zero(t, modal.renders)
}

func TestSynchronizer_OpenModalRendersEmptyState(t *testing.T) {
	_, sync, _, modal, _ := newFixture(t)

	sync.OpenModal()
	require.True(t, modal.open)
	require.Equal(t, 1, modal.renders)
	require.True(t, modal.lastRender.Empty)
}

func TestSynchronizer_OpenModalForceClosesExisting(t *testing.T) {
	_, sync, _, modal, _ := newFixture(t)

	sync.OpenModal()
	sync.OpenModal()

	// Повторное открытие: сначала Close существующего, затем новый Open.
	require.Equal(t, 2, modal.opens)
	require.Equal(t, 1, modal.closes)
	require.True(t, modal.open)
}

func TestSynchronizer_RenderWhileOpenKeepsOpen(t *testing.T) {
	store, sync, _, modal, _ := newFixture(t)

	sync.OpenModal()
	addItem(t, store, "P1", "50ml", 4250)
	sync.RefreshModal()

	require.True(t, modal.open)
	require.Equal(t, 1, modal.opens, "re-render must not reopen the modal")
	require.Equal(t, 2, modal.renders)
	require.False(t, modal.lastRender.Empty)
	require.Len(t, modal.lastRender.Lines, 1)
	require.Equal(t, int64(4250), modal.lastRender.TotalMinor)
}

func TestSynchronizer_ModalContentReflectsStateAtRebuild(t *testing.T) {
	store, sync, _, modal, _ := newFixture(t)

	addItem(t, store, "P1", "50ml", 4250)
	sync.OpenModal()
	addItem(t, store, "P2", "100ml", 7000)
	sync.RefreshModal()

	// Перестройка отражает состояние Store на момент перестройки, не устаревший снимок.
	require.Len(t, modal.lastRender.Lines, 2)
	require.Equal(t, int64(11250), modal.lastRender.TotalMinor)
}

func TestSynchronizer_CloseModal(t *testing.T) {
	_, sync, _, modal, _ := newFixture(t)

	sync.OpenModal()
	sync.CloseModal()
	require.False(t, modal.open)

	// Закрытие закрытого окна — no-op.
	sync.CloseModal()
	require.Equal(t, 1, modal.closes)
}

func TestSynchronizer_GridHighlightAnyVariantRule(t *testing.T) {
	store, sync, _, _, grid := newFixture(t)

	addItem(t, store, "P1", "50ml", 4250)
	sync.RefreshGridHighlights()

	require.True(t, grid.cards[0].inCart)
	require.False(t, grid.cards[1].inCart)

	// Карточка остаётся подсвеченной, пока в корзине есть хоть один вариант товара.
	addItem(t, store, "P1", "100ml", 7000)
	require.NoError(t, store.RemoveItem(context.Background(), "P1", "50ml"))
	sync.RefreshGridHighlights()
	require.True(t, grid.cards[0].inCart)

	require.NoError(t, store.RemoveItem(context.Background(), "P1", "100ml"))
	sync.RefreshGridHighlights()
	require.False(t, grid.cards[0].inCart)
}

func TestSynchronizer_ApplyCardHighlightMatchesGridRule(t *testing.T) {
	store, sync, _, _, grid := newFixture(t)

	addItem(t, store, "P1", "50ml", 4250)
	sync.ApplyCardHighlight("P1")
	require.True(t, grid.cards[0].inCart)
	require.Zero(t, grid.cards[1].sets, "targeted pass must not touch other cards")

	require.NoError(t, store.RemoveItem(context.Background(), "P1", "50ml"))
	sync.ApplyCardHighlight("P1")
	require.False(t, grid.cards[0].inCart)
}

func TestSynchronizer_ApplyExternalRefreshesEverything(t *testing.T) {
	store, sync, badge, modal, grid := newFixture(t)
	sync.OpenModal()

	external := domain.Cart{
		{ProductID: "P2", VariantKey: "100ml", Brand: "Atelier Sud", Name: "Iris Nuit", PriceMinor: 7000, Quantity: 2},
	}
	sync.ApplyExternal(external)

	require.Equal(t, 2, store.TotalItemCount())
	require.Equal(t, 2, badge.count)
	require.True(t, badge.visible)
	require.Len(t, modal.lastRender.Lines, 1)
	require.False(t, grid.cards[0].inCart)
	require.True(t, grid.cards[1].inCart)
}

func TestSynchronizer_SurfacesAreOptional(t *testing.T) {
	store := cart.NewStore(memory.NewStateStore(), cart.WithLogger(loggerForTests()))
	store.Load(context.Background())

	sync := view.NewSynchronizer(store, view.WithLogger(loggerForTests()))

	// Ни одна операция не должна паниковать без зарегистрированных поверхностей.
	sync.RefreshAll()
	sync.OpenModal()
	sync.CloseModal()
	sync.ApplyCardHighlight("P1")
}
