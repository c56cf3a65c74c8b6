package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSeed() *Seed {
	owners := []domain.Owner{
		{ID: "o_1", Name: "Avery Chen"},
		{ID: "o_2", Name: "Malik Ortiz"},
	}
	deal := func(id, borrowerID string, owner domain.Owner, stage domain.DealStage,
		product domain.ProductType, amount float64, age time.Duration) domain.Deal {
		return domain.Deal{
			ID:              id,
			Name:            id,
			BorrowerID:      borrowerID,
			Owner:           owner,
			Product:         product,
			Stage:           stage,
			RequestedAmount: amount,
			Probability:     0.5,
			RiskScore:       0.4,
			CreatedAt:       testBase.Add(-30 * 24 * time.Hour),
			UpdatedAt:       testBase.Add(-age),
		}
	}
	return &Seed{
		User:   domain.User{ID: "u_1", Name: "Jordan Review", Email: "jordan@krida.example"},
		Owners: owners,
		Borrowers: []domain.Borrower{
			{ID: "b_1", LegalName: "Acme Bakery"},
			{ID: "b_2", LegalName: "GreenTech Fabrication"},
		},
		Deals: []domain.Deal{
			deal("d_1", "b_1", owners[0], domain.StageProspect, domain.ProductTermLoan, 100_000, 1*time.Hour),
			deal("d_2", "b_1", owners[0], domain.StageUnderwriting, domain.ProductCRE, 400_000, 2*time.Hour),
			deal("d_3", "b_2", owners[1], domain.StageUnderwriting, domain.ProductTermLoan, 250_000, 3*time.Hour),
			deal("d_4", "b_2", owners[1], domain.StageApproved, domain.ProductEquipment, 900_000, 4*time.Hour),
			deal("d_5", "b_2", owners[0], domain.StageProspect, domain.ProductTermLoan, 50_000, 5*time.Hour),
		},
		Financials: []domain.Financial{
			{BorrowerID: "b_1", Period: "annual", PeriodEnd: "2023-12-31", Revenue: 1_000_000},
			{BorrowerID: "b_1", Period: "annual", PeriodEnd: "2024-12-31", Revenue: 1_200_000},
			{BorrowerID: "b_1", Period: "quarterly", PeriodEnd: "2025-06-30", Revenue: 300_000},
		},
		Documents: []domain.DocumentRequest{
			{ID: "dc_1", DealID: "d_1", Label: "Tax Return", Type: "tax",
				Status: domain.DocVerified, RequestedAt: testBase.Add(-48 * time.Hour)},
			{ID: "dc_2", DealID: "d_1", Label: "Bank Statements", Type: "bank_statements",
				Status: domain.DocPending, RequestedAt: testBase.Add(-24 * time.Hour)},
		},
		Tasks: []domain.Task{
			{ID: "t_1", DealID: "d_1", Title: "Review model", Status: domain.TaskTodo},
		},
		Suggestions: []domain.Suggestion{
			{ID: "s_1", DealID: "d_1", Severity: domain.SeverityInfo, Text: "Tighten covenants"},
		},
		TermSheets: []domain.TermSheet{
			{ID: "ts_d_1", DealID: "d_1", BaseRate: "SOFR", MarginBps: 450,
				AmortMonths: 240, LastEditedAt: testBase.Add(-72 * time.Hour)},
		},
		Activity: []domain.ActivityEvent{
			{ID: "a_1", DealID: "d_1", Type: "deal.created", At: testBase.Add(-30 * 24 * time.Hour)},
			{ID: "a_2", DealID: "d_1", Type: "deal.updated", At: testBase.Add(-2 * time.Hour)},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(testSeed())
}

func TestDocsProgressDerivedOnLoad(t *testing.T) {
	s := newTestStore(t)

	deal, err := s.GetDeal("d_1")
	require.NoError(t, err)
	// one of two documents complete
	require.Equal(t, 0.5, deal.DocsProgress)

	noDocs, err := s.GetDeal("d_2")
	require.NoError(t, err)
	require.Zero(t, noDocs.DocsProgress)
}

func TestDocsProgressTracksDocumentMutations(t *testing.T) {
	s := newTestStore(t)

	received := string(domain.DocReceived)
	_, err := s.UpdateDocument("dc_2", DocumentPatch{Status: &received})
	require.NoError(t, err)

	deal, err := s.GetDeal("d_1")
	require.NoError(t, err)
	require.Equal(t, 1.0, deal.DocsProgress)

	// Adding a pending document dilutes the ratio.
	_, err = s.CreateDocument("d_1", DocumentCreate{Label: "Debt Schedule", Type: "other"})
	require.NoError(t, err)

	deal, err = s.GetDeal("d_1")
	require.NoError(t, err)
	require.Equal(t, 0.67, deal.DocsProgress)
}

func TestCreateDocumentRequiresLabelAndType(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateDocument("d_1", DocumentCreate{Label: "Tax Return"})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidRequest, appErr.Code)
	require.Equal(t, []string{"label", "type"}, appErr.Details["required"])
}

func TestUpdateDealRejectsWithoutPartialWrite(t *testing.T) {
	s := newTestStore(t)

	stage := string(domain.StageDocs)
	bogus := 1.7
	_, err := s.UpdateDeal("d_1", DealPatch{Stage: &stage, Probability: &bogus})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidRequest, appErr.Code)

	deal, err := s.GetDeal("d_1")
	require.NoError(t, err)
	require.Equal(t, domain.StageProspect, deal.Stage, "stage must not change when another field fails validation")
	require.Equal(t, 0.5, deal.Probability)
}

func TestUpdateDealUnknownOwner(t *testing.T) {
	s := newTestStore(t)

	ownerID := "o_missing"
	_, err := s.UpdateDeal("d_1", DealPatch{OwnerID: &ownerID})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeInvalidRequest, appErr.Code)
}

func TestUpdateDealBumpsUpdatedAt(t *testing.T) {
	s := newTestStore(t)

	before, err := s.GetDeal("d_1")
	require.NoError(t, err)

	stage := string(domain.StageApplication)
	after, err := s.UpdateDeal("d_1", DealPatch{Stage: &stage})
	require.NoError(t, err)
	require.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestRequestDocumentChecksAttachment(t *testing.T) {
	s := newTestStore(t)

	_, err := s.RequestDocument("d_2", "dc_1")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)

	doc, err := s.RequestDocument("d_1", "dc_2")
	require.NoError(t, err)
	require.Equal(t, domain.DocRequested, doc.Status)
}

func TestActivityNewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.AppendActivity("d_1", domain.ActivityEvent{Type: "note.added"})
		require.NoError(t, err)
	}

	all := s.ActivityForDeal("d_1", 50)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i-1].At.Before(all[i].At), "activity must be newest first")
	}

	limited := s.ActivityForDeal("d_1", 2)
	require.Len(t, limited, 2)
	require.Equal(t, all[0].ID, limited[0].ID)
}

func TestAppendActivityUnknownDeal(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AppendActivity("d_missing", domain.ActivityEvent{Type: "note.added"})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestFinancialsFiltering(t *testing.T) {
	s := newTestStore(t)

	annual := s.FinancialsForBorrower("b_1", FinancialQuery{Period: "annual"})
	require.Len(t, annual, 2)

	bounded := s.FinancialsForBorrower("b_1", FinancialQuery{FromYear: 2024, ToYear: 2024})
	require.Len(t, bounded, 1)
	require.Equal(t, "2024-12-31", bounded[0].PeriodEnd)

	require.Empty(t, s.FinancialsForBorrower("b_missing", FinancialQuery{}))
}

func TestTermSheetUpsert(t *testing.T) {
	s := newTestStore(t)

	sheet, err := s.UpsertTermSheet("d_2", domain.TermSheet{BaseRate: "Prime", MarginBps: 500})
	require.NoError(t, err)
	require.Equal(t, "ts_d_2", sheet.ID)
	require.Equal(t, "d_2", sheet.DealID)
	require.False(t, sheet.LastEditedAt.IsZero())

	fetched, err := s.TermSheetForDeal("d_2")
	require.NoError(t, err)
	require.Equal(t, sheet, fetched)

	_, err = s.TermSheetForDeal("d_3")
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestTasksOrderedByDueDateUndatedLast(t *testing.T) {
	s := newTestStore(t)

	early := testBase.Add(24 * time.Hour)
	late := testBase.Add(72 * time.Hour)
	_, err := s.CreateTask("d_1", TaskCreate{Title: "late", DueAt: &late})
	require.NoError(t, err)
	_, err = s.CreateTask("d_1", TaskCreate{Title: "early", DueAt: &early})
	require.NoError(t, err)

	tasks := s.TasksForDeal("d_1")
	require.Len(t, tasks, 3)
	require.Equal(t, "early", tasks[0].Title)
	require.Equal(t, "late", tasks[1].Title)
	require.Nil(t, tasks[2].DueAt, "undated task sorts last")
}

func TestResetRestoresSeedState(t *testing.T) {
	s := newTestStore(t)

	stage := string(domain.StageDeclined)
	_, err := s.UpdateDeal("d_1", DealPatch{Stage: &stage})
	require.NoError(t, err)
	_, err = s.CreateDocument("d_2", DocumentCreate{Label: "PFS", Type: "statement"})
	require.NoError(t, err)

	s.Reset(testSeed())

	deal, err := s.GetDeal("d_1")
	require.NoError(t, err)
	require.Equal(t, domain.StageProspect, deal.Stage)
	require.Equal(t, 0.5, deal.DocsProgress, "docs progress is recomputed on reset")
	require.Empty(t, s.DocumentsForDeal("d_2"))
	require.Equal(t, 5, s.DealCount())
}

func TestMeAndReference(t *testing.T) {
	s := newTestStore(t)

	require.Equal(t, "u_1", s.Me().ID)

	ref := s.ReferenceData()
	require.Equal(t, domain.Stages(), ref.Stages)
	require.Equal(t, domain.Products(), ref.Products)
	require.Equal(t, []string{"o_1", "o_2"}, []string{ref.Owners[0].ID, ref.Owners[1].ID},
		"owners keep seed order")
}

func TestReturnedDealsAreCopies(t *testing.T) {
	s := newTestStore(t)

	deal, err := s.GetDeal("d_1")
	require.NoError(t, err)
	deal.Stage = domain.StageClosed

	again, err := s.GetDeal("d_1")
	require.NoError(t, err)
	require.Equal(t, domain.StageProspect, again.Stage)
}
