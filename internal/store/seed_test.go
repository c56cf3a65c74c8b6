package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"krida.io/dealdesk/internal/domain"
)

func TestDefaultSeedShape(t *testing.T) {
	seed := DefaultSeed()

	require.Len(t, seed.Owners, 3)
	require.Len(t, seed.Deals, defaultDealCount)
	require.Len(t, seed.Borrowers, defaultDealCount)
	require.Len(t, seed.TermSheets, defaultDealCount)
	require.Len(t, seed.Financials, defaultDealCount*4)
	require.Equal(t, "u_reviewer", seed.User.ID)

	byDeal := map[string]int{}
	for _, doc := range seed.Documents {
		byDeal[doc.DealID]++
	}
	for _, deal := range seed.Deals {
		n := byDeal[deal.ID]
		require.GreaterOrEqual(t, n, 5, "deal %s documents", deal.ID)
		require.LessOrEqual(t, n, 6, "deal %s documents", deal.ID)
		require.True(t, deal.Stage.Valid())
		require.True(t, deal.Product.Valid())
		require.InDelta(t, 0.5, deal.Probability, 0.5)
	}
}

func TestDefaultSeedDeterministic(t *testing.T) {
	a := DefaultSeed()
	b := DefaultSeed()

	require.Equal(t, len(a.Deals), len(b.Deals))
	for i := range a.Deals {
		require.Equal(t, a.Deals[i].ID, b.Deals[i].ID)
		require.Equal(t, a.Deals[i].RequestedAmount, b.Deals[i].RequestedAmount)
		require.Equal(t, a.Deals[i].Stage, b.Deals[i].Stage)
	}
	for i := range a.Suggestions {
		require.Equal(t, a.Suggestions[i].Text, b.Suggestions[i].Text)
	}
}

func TestDefaultSeedLoadsCleanly(t *testing.T) {
	s := New(DefaultSeed())

	require.Equal(t, defaultDealCount, s.DealCount())

	deals, _, err := s.ListDeals(DealQuery{Limit: 100})
	require.NoError(t, err)
	require.Len(t, deals, defaultDealCount)
	for _, deal := range deals {
		require.GreaterOrEqual(t, deal.DocsProgress, 0.0)
		require.LessOrEqual(t, deal.DocsProgress, 1.0)

		borrowers, err := s.BorrowersForDeal(deal.ID)
		require.NoError(t, err)
		require.Len(t, borrowers, 1)

		_, err = s.TermSheetForDeal(deal.ID)
		require.NoError(t, err)

		require.NotEmpty(t, s.ActivityForDeal(deal.ID, 50))
	}
}

func TestLoadSeedEmptyPathUsesDefault(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	require.Len(t, seed.Deals, defaultDealCount)
}

func TestLoadSeedMissingFileUsesDefault(t *testing.T) {
	seed, err := LoadSeed(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.Len(t, seed.Deals, defaultDealCount)
}

func TestLoadSeedFromFile(t *testing.T) {
	payload := `{
		"user": {"id": "u_x", "name": "X", "email": "x@example.com"},
		"owners": [{"id": "o_x", "name": "X Owner"}],
		"borrowers": [{"id": "b_x", "legalName": "X Corp"}],
		"deals": [{
			"id": "d_x", "name": "X Corp TermLoan", "borrowerId": "b_x",
			"owner": {"id": "o_x", "name": "X Owner"},
			"product": "TermLoan", "stage": "Prospect",
			"requestedAmount": 125000, "probability": 0.4,
			"createdAt": "2026-01-01T00:00:00Z", "updatedAt": "2026-02-01T00:00:00Z"
		}]
	}`
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Deals, 1)
	require.Equal(t, "d_x", seed.Deals[0].ID)
	require.Equal(t, domain.StageProspect, seed.Deals[0].Stage)

	s := New(seed)
	require.Equal(t, 1, s.DealCount())
}

func TestLoadSeedRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadSeed(path)
	require.Error(t, err)
}
