// Package store owns every domain record of the mock API and provides
// linearizable read and compound-mutation operations over them.
//
// All state hangs off a single state struct guarded by one mutex. Public
// methods acquire the lock and delegate to unexported *Locked helpers so
// compound operations (a document update that recomputes docs-progress and
// touches the parent deal) compose without re-acquiring. Reset builds a
// complete replacement state and swaps it under the lock, so concurrent
// readers see either the old or the new dataset, never a mix.
package store

import (
	"math"
	"sort"
	"sync"
	"time"

	apperrors "krida.io/dealdesk/internal/pkg/errors"

	"krida.io/dealdesk/internal/domain"
)

// Store holds all entities of the mock API behind one mutual-exclusion domain.
type Store struct {
	mu  sync.Mutex
	now func() time.Time
	st  *state
}

// state is the full in-memory dataset. It is only ever touched with the
// store's lock held.
type state struct {
	user      domain.User
	owners    map[string]domain.Owner
	ownerIDs  []string // insertion order for /reference
	borrowers map[string]domain.Borrower
	deals     map[string]*domain.Deal

	financialsByBorrower map[string][]domain.Financial

	documentsByID   map[string]*domain.DocumentRequest
	documentsByDeal map[string][]string

	tasksByID   map[string]*domain.Task
	tasksByDeal map[string][]string

	suggestionsByDeal map[string][]domain.Suggestion
	termSheets        map[string]*domain.TermSheet
	activityByDeal    map[string][]domain.ActivityEvent
	jobs              map[string]*domain.Job
}

// New creates a store loaded from the given seed.
func New(seed *Seed) *Store {
	s := &Store{
		now: func() time.Time { return time.Now().UTC() },
	}
	s.Reset(seed)
	return s
}

// Reset discards all prior state and reloads from seed. The swap is atomic
// with respect to concurrent readers.
func (s *Store) Reset(seed *Seed) {
	st := buildState(seed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
	s.recomputeDocsProgressAllLocked()
}

func buildState(seed *Seed) *state {
	st := &state{
		user:                 seed.User,
		owners:               make(map[string]domain.Owner, len(seed.Owners)),
		borrowers:            make(map[string]domain.Borrower, len(seed.Borrowers)),
		deals:                make(map[string]*domain.Deal, len(seed.Deals)),
		financialsByBorrower: make(map[string][]domain.Financial),
		documentsByID:        make(map[string]*domain.DocumentRequest, len(seed.Documents)),
		documentsByDeal:      make(map[string][]string),
		tasksByID:            make(map[string]*domain.Task, len(seed.Tasks)),
		tasksByDeal:          make(map[string][]string),
		suggestionsByDeal:    make(map[string][]domain.Suggestion),
		termSheets:           make(map[string]*domain.TermSheet),
		activityByDeal:       make(map[string][]domain.ActivityEvent),
		jobs:                 make(map[string]*domain.Job),
	}

	for _, owner := range seed.Owners {
		st.owners[owner.ID] = owner
		st.ownerIDs = append(st.ownerIDs, owner.ID)
	}
	for _, b := range seed.Borrowers {
		st.borrowers[b.ID] = b
	}
	for i := range seed.Deals {
		deal := seed.Deals[i]
		st.deals[deal.ID] = &deal
	}
	for _, fin := range seed.Financials {
		st.financialsByBorrower[fin.BorrowerID] = append(st.financialsByBorrower[fin.BorrowerID], fin)
	}
	for i := range seed.Documents {
		doc := seed.Documents[i]
		st.documentsByID[doc.ID] = &doc
		st.documentsByDeal[doc.DealID] = append(st.documentsByDeal[doc.DealID], doc.ID)
	}
	for i := range seed.Tasks {
		task := seed.Tasks[i]
		st.tasksByID[task.ID] = &task
		st.tasksByDeal[task.DealID] = append(st.tasksByDeal[task.DealID], task.ID)
	}
	for _, sug := range seed.Suggestions {
		st.suggestionsByDeal[sug.DealID] = append(st.suggestionsByDeal[sug.DealID], sug)
	}
	for i := range seed.TermSheets {
		ts := seed.TermSheets[i]
		st.termSheets[ts.DealID] = &ts
	}
	for _, ev := range seed.Activity {
		st.activityByDeal[ev.DealID] = append(st.activityByDeal[ev.DealID], ev)
	}
	for dealID := range st.activityByDeal {
		sortActivityDesc(st.activityByDeal[dealID])
	}
	return st
}

// DealCount returns the number of loaded deals.
func (s *Store) DealCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.deals)
}

// Me returns the demo user.
func (s *Store) Me() domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.user
}

// Reference holds the enumerable reference data exposed at /reference.
type Reference struct {
	Stages   []domain.DealStage   `json:"stages"`
	Products []domain.ProductType `json:"products"`
	Owners   []domain.Owner       `json:"owners"`
}

// ReferenceData returns stages, products and owners.
func (s *Store) ReferenceData() Reference {
	s.mu.Lock()
	defer s.mu.Unlock()

	owners := make([]domain.Owner, 0, len(s.st.ownerIDs))
	for _, id := range s.st.ownerIDs {
		owners = append(owners, s.st.owners[id])
	}
	return Reference{
		Stages:   domain.Stages(),
		Products: domain.Products(),
		Owners:   owners,
	}
}

// touchDealLocked bumps a deal's updatedAt. Missing deals are ignored; the
// caller has already validated existence where it matters.
func (s *Store) touchDealLocked(dealID string) {
	if deal, ok := s.st.deals[dealID]; ok {
		deal.UpdatedAt = s.now()
	}
}

func (s *Store) recomputeDocsProgressAllLocked() {
	for dealID := range s.st.deals {
		s.recomputeDocsProgressLocked(dealID)
	}
}

// recomputeDocsProgressLocked rederives docsProgress for one deal:
// completed documents / total documents, rounded to two decimals.
func (s *Store) recomputeDocsProgressLocked(dealID string) {
	deal, ok := s.st.deals[dealID]
	if !ok {
		return
	}
	docIDs := s.st.documentsByDeal[dealID]
	if len(docIDs) == 0 {
		deal.DocsProgress = 0
		return
	}
	completed := 0
	for _, docID := range docIDs {
		if s.st.documentsByID[docID].Status.Complete() {
			completed++
		}
	}
	progress := float64(completed) / float64(len(docIDs))
	deal.DocsProgress = math.Round(progress*100) / 100
}

func sortActivityDesc(events []domain.ActivityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.After(events[j].At)
	})
}

func errDealNotFound() *apperrors.AppError {
	return apperrors.NotFound("Deal not found")
}
