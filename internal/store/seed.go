package store

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"krida.io/dealdesk/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Seed is the structured document the store loads from. Shapes match the
// entity JSON of the API, so a captured response set can be replayed as seed.
type Seed struct {
	Owners      []domain.Owner           `json:"owners"`
	User        domain.User              `json:"user"`
	Borrowers   []domain.Borrower        `json:"borrowers"`
	Deals       []domain.Deal            `json:"deals"`
	Financials  []domain.Financial       `json:"financials"`
	Documents   []domain.DocumentRequest `json:"documents"`
	Tasks       []domain.Task            `json:"tasks"`
	Suggestions []domain.Suggestion      `json:"suggestions"`
	TermSheets  []domain.TermSheet       `json:"termSheets"`
	Activity    []domain.ActivityEvent   `json:"activity"`
}

// LoadSeed reads a JSON seed file, or generates the default dataset when the
// path is empty or missing.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSeed(), nil
		}
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return &seed, nil
}

// defaultSeedRandom fixes the generator so the default dataset is stable
// across restarts within one build.
const defaultSeedRandom = 20240522

const defaultDealCount = 40

// DefaultSeed generates the deterministic demo dataset: 40 deals with
// borrowers, financial history, document checklists, tasks, suggestions,
// term sheets and an activity trail.
func DefaultSeed() *Seed {
	rng := rand.New(rand.NewPCG(defaultSeedRandom, defaultSeedRandom))
	now := time.Now().UTC()

	owners := []domain.Owner{
		{ID: "o_avery", Name: "Avery Chen"},
		{ID: "o_malik", Name: "Malik Ortiz"},
		{ID: "o_sky", Name: "Sky Patel"},
	}

	type borrowerTemplate struct {
		name     string
		naics    string
		industry string
	}
	borrowerTemplates := []borrowerTemplate{
		{"Acme Bakery", "311812", "Food Manufacturing"},
		{"GreenTech Fabrication", "335312", "Clean Energy"},
		{"Sunrise Learning Center", "624410", "Child Care"},
		{"Bluewater Fisheries", "114112", "Aquaculture"},
		{"Summit Outdoor Gear", "451110", "Retail"},
		{"Harbor Freight Logistics", "488510", "Logistics"},
		{"Lakeside Hospitality Group", "721110", "Hospitality"},
		{"BrightPath Healthcare", "621610", "Healthcare"},
		{"Atlas Auto Services", "811111", "Automotive"},
		{"Crescent Landscaping", "561730", "Services"},
		{"Northstar Media", "512110", "Media"},
		{"Verdant Farming Co.", "111998", "Agriculture"},
	}

	stages := domain.Stages()
	products := domain.Products()

	seed := &Seed{
		Owners: owners,
		User: domain.User{
			ID:    "u_reviewer",
			Name:  "Jordan Review",
			Email: "jordan.review@krida.example",
		},
	}

	for idx := 0; idx < defaultDealCount; idx++ {
		tmpl := borrowerTemplates[idx%len(borrowerTemplates)]
		borrowerID := fmt.Sprintf("b_%d", idx+301)
		borrowerName := fmt.Sprintf("%s %d", tmpl.name, idx%5+1)
		seed.Borrowers = append(seed.Borrowers, domain.Borrower{
			ID:                   borrowerID,
			LegalName:            borrowerName,
			Industry:             tmpl.industry,
			NAICS:                tmpl.naics,
			Address:              fmt.Sprintf("%d Market St, City %d, ST", 100+idx, idx%7+1),
			ExistingRelationship: rng.IntN(2) == 0,
			Deposits:             round2(uniform(rng, 50_000, 750_000)),
		})

		owner := owners[idx%len(owners)]
		product := products[idx%len(products)]
		dealID := fmt.Sprintf("d_%d", idx+401)
		createdAt := now.AddDate(0, 0, -randBetween(rng, 40, 240))
		updatedAt := now.AddDate(0, 0, -randBetween(rng, 1, 30))
		seed.Deals = append(seed.Deals, domain.Deal{
			ID:              dealID,
			Name:            fmt.Sprintf("%s %s", borrowerName, product),
			BorrowerID:      borrowerID,
			Owner:           owner,
			Product:         product,
			Stage:           stages[idx%len(stages)],
			RequestedAmount: round2(uniform(rng, 150_000, 5_000_000)),
			Probability:     round2(uniform(rng, 0.15, 0.85)),
			RiskScore:       round2(uniform(rng, 0.2, 0.85)),
			DSCR:            round2(uniform(rng, 0.8, 1.4)),
			LTV:             round2(uniform(rng, 0.45, 0.85)),
			Flags:           sampleFlags(rng),
			CreatedAt:       createdAt,
			UpdatedAt:       updatedAt,
		})

		seed.Financials = append(seed.Financials, financialHistory(rng, borrowerID, now)...)
		seed.Documents = append(seed.Documents, documentChecklist(rng, dealID, now)...)
		seed.Tasks = append(seed.Tasks, seedTasks(rng, dealID, owner.ID, now)...)
		seed.Suggestions = append(seed.Suggestions, seedSuggestions(rng, dealID)...)
		seed.TermSheets = append(seed.TermSheets, termSheetBaseline(rng, dealID, now))
		seed.Activity = append(seed.Activity, activityTrail(dealID, updatedAt)...)
	}

	return seed
}

func financialHistory(rng *rand.Rand, borrowerID string, now time.Time) []domain.Financial {
	records := make([]domain.Financial, 0, 4)
	baseYear := now.Year() - 3
	for offset := 0; offset < 3; offset++ {
		revenue := round2(uniform(rng, 850_000, 8_500_000))
		records = append(records, domain.Financial{
			BorrowerID:  borrowerID,
			Period:      "annual",
			PeriodEnd:   fmt.Sprintf("%d-12-31", baseYear+offset),
			Revenue:     revenue,
			EBITDA:      round2(revenue * uniform(rng, 0.08, 0.22)),
			DebtService: round2(revenue * uniform(rng, 0.04, 0.12)),
		})
	}
	quarterEndMonth := 3 * ((int(now.Month())-1)/3 + 1)
	revenue := round2(uniform(rng, 250_000, 2_000_000))
	records = append(records, domain.Financial{
		BorrowerID:  borrowerID,
		Period:      "quarterly",
		PeriodEnd:   fmt.Sprintf("%d-%02d-30", now.Year(), quarterEndMonth),
		Revenue:     revenue,
		EBITDA:      round2(revenue * uniform(rng, 0.06, 0.2)),
		DebtService: round2(revenue * uniform(rng, 0.05, 0.12)),
	})
	return records
}

func documentChecklist(rng *rand.Rand, dealID string, now time.Time) []domain.DocumentRequest {
	type docTemplate struct {
		label   string
		docType string
	}
	base := []docTemplate{
		{"2019 Tax Return", "tax"},
		{"2023 YTD P&L", "statement"},
		{"Debt Schedule", "other"},
		{"Bank Statements", "bank_statements"},
		{"Personal Financial Statement", "statement"},
		{"Ownership Chart", "other"},
	}
	rng.Shuffle(len(base), func(i, j int) { base[i], base[j] = base[j], base[i] })

	statuses := []domain.DocStatus{
		domain.DocPending, domain.DocRequested, domain.DocReceived,
		domain.DocVerified, domain.DocRejected, domain.DocWaived,
	}

	count := randBetween(rng, 5, 8)
	if count > len(base) {
		count = len(base)
	}
	docs := make([]domain.DocumentRequest, 0, count)
	for i := 0; i < count; i++ {
		var requiredBy *string
		if rng.Float64() < 0.6 {
			due := now.AddDate(0, 0, randBetween(rng, 5, 30)).Format("2006-01-02")
			requiredBy = &due
		}
		docs = append(docs, domain.DocumentRequest{
			ID:          fmt.Sprintf("dc_%012x", rng.Uint64()&0xffffffffffff),
			DealID:      dealID,
			Label:       base[i].label,
			Type:        base[i].docType,
			RequiredBy:  requiredBy,
			Status:      statuses[rng.IntN(len(statuses))],
			RequestedAt: now.AddDate(0, 0, -randBetween(rng, 1, 35)),
		})
	}
	return docs
}

func seedTasks(rng *rand.Rand, dealID, ownerID string, now time.Time) []domain.Task {
	titles := []string{
		"Collect BOI Report",
		"Review cash flow model",
		"Confirm collateral appraisal",
		"Prep credit memo draft",
		"Schedule site visit",
	}
	statuses := []domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress, domain.TaskDone}

	count := randBetween(rng, 1, 3)
	tasks := make([]domain.Task, 0, count)
	for i := 0; i < count; i++ {
		dueAt := now.AddDate(0, 0, randBetween(rng, 2, 20))
		assignee := ownerID
		tasks = append(tasks, domain.Task{
			ID:         fmt.Sprintf("t_%s_%d", dealID, i+1),
			DealID:     dealID,
			Title:      titles[rng.IntN(len(titles))],
			AssignedTo: &assignee,
			DueAt:      &dueAt,
			Status:     statuses[rng.IntN(len(statuses))],
		})
	}
	return tasks
}

func seedSuggestions(rng *rand.Rand, dealID string) []domain.Suggestion {
	type suggestionTemplate struct {
		text     string
		severity domain.Severity
	}
	templates := []suggestionTemplate{
		{"Keeps DSCR ≥ 1.2 with fee adj.", domain.SeverityInfo},
		{"Offset margin without DSCR risk", domain.SeverityInfo},
		{"Mitigate project execution risk", domain.SeverityWarning},
		{"Tenant improvements rely on lease terms", domain.SeverityWarning},
	}
	rng.Shuffle(len(templates), func(i, j int) { templates[i], templates[j] = templates[j], templates[i] })

	count := randBetween(rng, 2, 4)
	suggestions := make([]domain.Suggestion, 0, count)
	for i := 0; i < count; i++ {
		suggestions = append(suggestions, domain.Suggestion{
			ID:       fmt.Sprintf("s_%s_%d", dealID, i+1),
			DealID:   dealID,
			Severity: templates[i].severity,
			Text:     templates[i].text,
		})
	}
	return suggestions
}

func termSheetBaseline(rng *rand.Rand, dealID string, now time.Time) domain.TermSheet {
	baseRates := []string{"SOFR", "Prime"}
	amorts := []int{120, 180, 240, 300}
	interestOnly := []int{0, 3, 6, 12}
	prepays := []*string{strPtr("3-2-1"), strPtr("Declining"), nil}
	collaterals := []string{"Business assets", "CRE first lien", "Equipment lien"}

	collateral := collaterals[rng.IntN(len(collaterals))]
	return domain.TermSheet{
		ID:                 "ts_" + dealID,
		DealID:             dealID,
		BaseRate:           baseRates[rng.IntN(len(baseRates))],
		MarginBps:          randBetween(rng, 350, 650),
		AmortMonths:        amorts[rng.IntN(len(amorts))],
		InterestOnlyMonths: interestOnly[rng.IntN(len(interestOnly))],
		OriginationFeeBps:  randBetween(rng, 75, 250),
		PrepayPenalty:      prepays[rng.IntN(len(prepays))],
		Collateral:         &collateral,
		Covenants:          []string{"Maintain DSCR ≥ 1.20", "Quarterly reporting"},
		Conditions:         []string{"Evidence of insurance", "Environmental report"},
		LastEditedAt:       now,
	}
}

func activityTrail(dealID string, baseTime time.Time) []domain.ActivityEvent {
	types := []string{"deal.created", "deal.updated", "note.added"}
	events := make([]domain.ActivityEvent, 0, len(types))
	for i, eventType := range types {
		events = append(events, domain.ActivityEvent{
			ID:      fmt.Sprintf("a_%s_%d", dealID, i+1),
			Type:    eventType,
			At:      baseTime.AddDate(0, 0, -(i + 1)),
			DealID:  dealID,
			Payload: map[string]any{"summary": eventType},
		})
	}
	return events
}

func sampleFlags(rng *rand.Rand) []string {
	flags := []string{
		"RevenueDecline",
		"BankStatementMismatch",
		"HighLeverage",
		"AgingReceivables",
	}
	rng.Shuffle(len(flags), func(i, j int) { flags[i], flags[j] = flags[j], flags[i] })
	return flags[:rng.IntN(3)]
}

func uniform(rng *rand.Rand, low, high float64) float64 {
	return low + rng.Float64()*(high-low)
}

// randBetween returns an int in [low, high] inclusive.
func randBetween(rng *rand.Rand, low, high int) int {
	return low + rng.IntN(high-low+1)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func strPtr(s string) *string {
	return &s
}
