package store

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
)

// Sort keys accepted by ListDeals.
const (
	SortUpdatedAt       = "updatedAt"
	SortRequestedAmount = "requestedAmount"
)

// DealQuery carries the filter, sort and pagination parameters of a deal
// listing. Zero values mean "not set".
type DealQuery struct {
	// Search is a case-insensitive substring match on borrower legal name.
	Search  string
	Stage   string
	OwnerID string
	Product string

	MinAmount *float64
	MaxAmount *float64

	Sort  string // updatedAt (default) | requestedAmount
	Order string // asc | desc (default)

	Limit  int
	Cursor string
}

// dealKey is the full sort tuple (key value, id) guaranteeing a total order
// even with duplicate key values.
type dealKey struct {
	byAmount bool
	amount   float64
	at       time.Time
	id       string
}

func (k dealKey) less(other dealKey) bool {
	if k.byAmount {
		if k.amount != other.amount {
			return k.amount < other.amount
		}
	} else {
		if !k.at.Equal(other.at) {
			return k.at.Before(other.at)
		}
	}
	return k.id < other.id
}

// ListDeals applies filters, sorts by (key, id), and pages with an opaque
// cursor. The cursor re-derives sort keys from live records on every fetch,
// so pagination is stable under insertions but best-effort when the sort
// field itself mutates between pages.
func (s *Store) ListDeals(q DealQuery) ([]domain.Deal, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]*domain.Deal, 0, len(s.st.deals))
	for _, deal := range s.st.deals {
		records = append(records, deal)
	}

	if q.Search != "" {
		lowered := strings.ToLower(q.Search)
		records = filterDeals(records, func(d *domain.Deal) bool {
			borrower, ok := s.st.borrowers[d.BorrowerID]
			return ok && strings.Contains(strings.ToLower(borrower.LegalName), lowered)
		})
	}
	if q.Stage != "" {
		records = filterDeals(records, func(d *domain.Deal) bool { return string(d.Stage) == q.Stage })
	}
	if q.OwnerID != "" {
		records = filterDeals(records, func(d *domain.Deal) bool { return d.Owner.ID == q.OwnerID })
	}
	if q.Product != "" {
		records = filterDeals(records, func(d *domain.Deal) bool { return string(d.Product) == q.Product })
	}
	if q.MinAmount != nil {
		records = filterDeals(records, func(d *domain.Deal) bool { return d.RequestedAmount >= *q.MinAmount })
	}
	if q.MaxAmount != nil {
		records = filterDeals(records, func(d *domain.Deal) bool { return d.RequestedAmount <= *q.MaxAmount })
	}

	byAmount := q.Sort == SortRequestedAmount
	descending := !strings.EqualFold(q.Order, "asc")

	sort.Slice(records, func(i, j int) bool {
		less := sortKeyFor(byAmount, records[i]).less(sortKeyFor(byAmount, records[j]))
		if descending {
			return !less
		}
		return less
	})

	if marker, ok := decodeDealMarker(q.Cursor, byAmount); ok {
		trimmed := records[:0]
		for _, rec := range records {
			key := sortKeyFor(byAmount, rec)
			// Keep only records strictly after the marker in sort direction.
			if (descending && key.less(marker)) || (!descending && marker.less(key)) {
				trimmed = append(trimmed, rec)
			}
		}
		records = trimmed
	}

	page := records
	if q.Limit > 0 && len(records) > q.Limit {
		page = records[:q.Limit]
	}

	nextCursor := ""
	if q.Limit > 0 && len(records) > q.Limit {
		tail := page[len(page)-1]
		nextCursor = encodeCursor(cursorValueFor(byAmount, tail), tail.ID)
	}

	items := make([]domain.Deal, 0, len(page))
	for _, rec := range page {
		items = append(items, cloneDeal(rec))
	}
	return items, nextCursor, nil
}

func filterDeals(records []*domain.Deal, keep func(*domain.Deal) bool) []*domain.Deal {
	filtered := records[:0]
	for _, rec := range records {
		if keep(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func sortKeyFor(byAmount bool, d *domain.Deal) dealKey {
	if byAmount {
		return dealKey{byAmount: true, amount: d.RequestedAmount, id: d.ID}
	}
	return dealKey{at: d.UpdatedAt, id: d.ID}
}

func cursorValueFor(byAmount bool, d *domain.Deal) string {
	if byAmount {
		return strconv.FormatFloat(d.RequestedAmount, 'f', -1, 64)
	}
	return d.UpdatedAt.UTC().Format(time.RFC3339Nano)
}

func decodeDealMarker(cursor string, byAmount bool) (dealKey, bool) {
	value, id, ok := decodeCursor(cursor)
	if !ok {
		return dealKey{}, false
	}
	if byAmount {
		amount, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return dealKey{}, false
		}
		return dealKey{byAmount: true, amount: amount, id: id}, true
	}
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return dealKey{}, false
	}
	return dealKey{at: at, id: id}, true
}

// GetDeal returns a deal by id.
func (s *Store) GetDeal(dealID string) (domain.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.st.deals[dealID]
	if !ok {
		return domain.Deal{}, errDealNotFound()
	}
	return cloneDeal(deal), nil
}

// DealPatch carries the optional fields of a deal update. Nil means "leave
// unchanged".
type DealPatch struct {
	Stage       *string
	OwnerID     *string
	Probability *float64
	RiskScore   *float64
}

// UpdateDeal applies only the fields present in the patch. Every field is
// validated before any field is written, so a rejected request never leaves
// the deal partially updated.
func (s *Store) UpdateDeal(dealID string, patch DealPatch) (domain.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.st.deals[dealID]
	if !ok {
		return domain.Deal{}, errDealNotFound()
	}

	var newOwner domain.Owner
	if patch.Stage != nil && !domain.DealStage(*patch.Stage).Valid() {
		return domain.Deal{}, apperrors.InvalidRequest("Unknown stage")
	}
	if patch.OwnerID != nil {
		owner, ok := s.st.owners[*patch.OwnerID]
		if !ok {
			return domain.Deal{}, apperrors.InvalidRequest("Unknown owner")
		}
		newOwner = owner
	}
	if patch.Probability != nil && (*patch.Probability < 0 || *patch.Probability > 1) {
		return domain.Deal{}, apperrors.InvalidRequest("Probability must be between 0 and 1")
	}
	if patch.RiskScore != nil && (*patch.RiskScore < 0 || *patch.RiskScore > 1) {
		return domain.Deal{}, apperrors.InvalidRequest("Risk score must be between 0 and 1")
	}

	if patch.Stage != nil {
		deal.Stage = domain.DealStage(*patch.Stage)
	}
	if patch.OwnerID != nil {
		deal.Owner = newOwner
	}
	if patch.Probability != nil {
		deal.Probability = *patch.Probability
	}
	if patch.RiskScore != nil {
		deal.RiskScore = *patch.RiskScore
	}
	s.touchDealLocked(dealID)
	return cloneDeal(deal), nil
}

// BorrowersForDeal returns the borrower(s) referenced by the deal.
func (s *Store) BorrowersForDeal(dealID string) ([]domain.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal, ok := s.st.deals[dealID]
	if !ok {
		return nil, errDealNotFound()
	}
	borrower, ok := s.st.borrowers[deal.BorrowerID]
	if !ok {
		return []domain.Borrower{}, nil
	}
	return []domain.Borrower{borrower}, nil
}

// GetBorrower returns a borrower by id.
func (s *Store) GetBorrower(borrowerID string) (domain.Borrower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	borrower, ok := s.st.borrowers[borrowerID]
	if !ok {
		return domain.Borrower{}, apperrors.NotFound("Borrower not found")
	}
	return borrower, nil
}

// FinancialQuery narrows a borrower's financial records.
type FinancialQuery struct {
	Period   string // annual | quarterly; empty = all
	FromYear int    // inclusive lower bound on the periodEnd year; 0 = unset
	ToYear   int    // inclusive upper bound; 0 = unset
}

// FinancialsForBorrower returns the borrower's financial records, optionally
// narrowed by period and year bounds. Unknown borrowers yield an empty list,
// matching the original API.
func (s *Store) FinancialsForBorrower(borrowerID string, q FinancialQuery) []domain.Financial {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]domain.Financial, 0, len(s.st.financialsByBorrower[borrowerID]))
	for _, rec := range s.st.financialsByBorrower[borrowerID] {
		if q.Period != "" && rec.Period != q.Period {
			continue
		}
		year := periodEndYear(rec.PeriodEnd)
		if q.FromYear > 0 && year < q.FromYear {
			continue
		}
		if q.ToYear > 0 && year > q.ToYear {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func periodEndYear(periodEnd string) int {
	if len(periodEnd) < 4 {
		return 0
	}
	year, err := strconv.Atoi(periodEnd[:4])
	if err != nil {
		return 0
	}
	return year
}

func cloneDeal(d *domain.Deal) domain.Deal {
	clone := *d
	clone.Flags = append([]string(nil), d.Flags...)
	return clone
}
