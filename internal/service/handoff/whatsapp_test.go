package handoff_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
	"github.com/vladislavdragonenkov/cartsync/internal/service/handoff"
)

func sampleCart() domain.Cart {
	return domain.Cart{
		{ProductID: "12", VariantKey: "50ml", Brand: "Maison Noire", Name: "Aventura", PriceMinor: 4250, Quantity: 2},
		{ProductID: "7", VariantKey: "100ml", Brand: "Atelier Sud", Name: "Iris Nuit", PriceMinor: 7000, Quantity: 1},
	}
}

func TestBuilder_EmptyCartBlocked(t *testing.T) {
	builder := handoff.NewBuilder("33628494751")

	_, err := builder.BuildSummary(domain.Cart{})
	require.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestBuilder_SummaryPreservesOrderAndTotals(t *testing.T) {
	builder := handoff.NewBuilder("33628494751")

	summary, err := builder.BuildSummary(sampleCart())
	require.NoError(t, err)

	require.NotEmpty(t, summary.Reference)
	require.Len(t, summary.Lines, 2)
	require.Equal(t, "12", summary.Lines[0].ProductID)
	require.Equal(t, "7", summary.Lines[1].ProductID)
	require.Equal(t, int64(8500), summary.Lines[0].LineTotalMinor)
	require.Equal(t, int64(7000), summary.Lines[1].LineTotalMinor)
	require.Equal(t, int64(15500), summary.TotalMinor)
}

func TestBuilder_MessageLayout(t *testing.T) {
	builder := handoff.NewBuilder("33628494751")

	summary, err := builder.BuildSummary(sampleCart())
	require.NoError(t, err)

	message := builder.Message(summary)
	expected := "Nouvelle commande:\n\n" +
		"1. *Maison Noire*\n" +
		"   Aventura\n" +
		"   Réf: 12 | Taille: 50ml\n" +
		"   Qté: 2 x 42,50 € = 85,00 €\n\n" +
		"2. *Atelier Sud*\n" +
		"   Iris Nuit\n" +
		"   Réf: 7 | Taille: 100ml\n" +
		"   Qté: 1 x 70,00 € = 70,00 €\n\n" +
		"*Total: 155,00 €*\n\n" +
		"Merci pour votre commande !"
	require.Equal(t, expected, message)
}

func TestBuilder_DeepLink(t *testing.T) {
	builder := handoff.NewBuilder("+33628494751")

	summary, err := builder.BuildSummary(sampleCart())
	require.NoError(t, err)

	link := builder.DeepLink(summary)
	require.True(t, strings.HasPrefix(link, "https://wa.me/33628494751?text="), link)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, builder.Message(summary), parsed.Query().Get("text"))
}

func TestFormatEuroMinor(t *testing.T) {
	cases := map[int64]string{
		0:     "0,00 €",
		5:     "0,05 €",
		4250:  "42,50 €",
		7000:  "70,00 €",
		11250: "112,50 €",
		-150:  "-1,50 €",
	}
	for minor, want := range cases {
		if got := handoff.FormatEuroMinor(minor); got != want {
			t.Errorf("FormatEuroMinor(%d) = %q, want %q", minor, got, want)
		}
	}
}
