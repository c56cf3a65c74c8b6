package store

import (
	"sort"
	"time"

	"krida.io/dealdesk/internal/domain"
	apperrors "krida.io/dealdesk/internal/pkg/errors"
)

// DocumentsForDeal returns the deal's checklist, newest request first.
func (s *Store) DocumentsForDeal(dealID string) []domain.DocumentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	docIDs := s.st.documentsByDeal[dealID]
	docs := make([]domain.DocumentRequest, 0, len(docIDs))
	for _, docID := range docIDs {
		docs = append(docs, cloneDocument(s.st.documentsByID[docID]))
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].RequestedAt.After(docs[j].RequestedAt)
	})
	return docs
}

// DocumentCreate carries the payload of a new checklist item.
type DocumentCreate struct {
	Label      string
	Type       string
	RequiredBy *string
	Link       *string
}

// CreateDocument adds a checklist item to an existing deal in pending status,
// touches the deal and recomputes its docs-progress.
func (s *Store) CreateDocument(dealID string, payload DocumentCreate) (domain.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.deals[dealID]; !ok {
		return domain.DocumentRequest{}, errDealNotFound()
	}
	if payload.Label == "" || payload.Type == "" {
		return domain.DocumentRequest{}, apperrors.InvalidRequest("Missing fields").
			WithDetails(map[string]any{"required": []string{"label", "type"}})
	}

	doc := &domain.DocumentRequest{
		ID:          NewID("dc"),
		DealID:      dealID,
		Label:       payload.Label,
		Type:        payload.Type,
		RequiredBy:  payload.RequiredBy,
		Status:      domain.DocPending,
		Link:        payload.Link,
		RequestedAt: s.now(),
	}
	s.st.documentsByID[doc.ID] = doc
	s.st.documentsByDeal[dealID] = append(s.st.documentsByDeal[dealID], doc.ID)
	s.touchDealLocked(dealID)
	s.recomputeDocsProgressLocked(dealID)
	return cloneDocument(doc), nil
}

// DocumentPatch carries the optional fields of a document update.
type DocumentPatch struct {
	Status *string
	Link   *string
}

// UpdateDocument applies status/link changes, touches the parent deal and
// recomputes its docs-progress.
func (s *Store) UpdateDocument(documentID string, patch DocumentPatch) (domain.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.st.documentsByID[documentID]
	if !ok {
		return domain.DocumentRequest{}, apperrors.NotFound("Document not found")
	}
	if patch.Status != nil {
		status := domain.DocStatus(*patch.Status)
		if !status.Valid() {
			return domain.DocumentRequest{}, apperrors.InvalidRequest("Invalid status")
		}
		doc.Status = status
	}
	if patch.Link != nil {
		doc.Link = patch.Link
	}
	s.touchDealLocked(doc.DealID)
	s.recomputeDocsProgressLocked(doc.DealID)
	return cloneDocument(doc), nil
}

// RequestDocument flips an existing checklist item of the deal to requested.
func (s *Store) RequestDocument(dealID, checklistItemID string) (domain.DocumentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.st.documentsByID[checklistItemID]
	if !ok {
		return domain.DocumentRequest{}, apperrors.NotFound("Document not found")
	}
	if doc.DealID != dealID {
		return domain.DocumentRequest{}, apperrors.NotFound("Document not attached to deal")
	}
	doc.Status = domain.DocRequested
	s.touchDealLocked(dealID)
	s.recomputeDocsProgressLocked(dealID)
	return cloneDocument(doc), nil
}

// TasksForDeal returns the deal's tasks ordered by due date, undated last.
func (s *Store) TasksForDeal(dealID string) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskIDs := s.st.tasksByDeal[dealID]
	tasks := make([]domain.Task, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		tasks = append(tasks, *s.st.tasksByID[taskID])
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return taskDue(tasks[i]).Before(taskDue(tasks[j]))
	})
	return tasks
}

func taskDue(t domain.Task) time.Time {
	if t.DueAt == nil {
		// Undated tasks sort last.
		return time.Unix(1<<62, 0)
	}
	return *t.DueAt
}

// TaskCreate carries the payload of a new task.
type TaskCreate struct {
	Title      string
	AssignedTo *string
	DueAt      *time.Time
	Status     *string
}

// CreateTask adds a task to an existing deal and touches the deal.
func (s *Store) CreateTask(dealID string, payload TaskCreate) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.deals[dealID]; !ok {
		return domain.Task{}, errDealNotFound()
	}
	if payload.Title == "" {
		return domain.Task{}, apperrors.InvalidRequest("title is required")
	}
	status := domain.TaskTodo
	if payload.Status != nil {
		status = domain.TaskStatus(*payload.Status)
		if !status.Valid() {
			return domain.Task{}, apperrors.InvalidRequest("Invalid status")
		}
	}

	task := &domain.Task{
		ID:         NewID("task"),
		DealID:     dealID,
		Title:      payload.Title,
		AssignedTo: payload.AssignedTo,
		DueAt:      payload.DueAt,
		Status:     status,
	}
	s.st.tasksByID[task.ID] = task
	s.st.tasksByDeal[dealID] = append(s.st.tasksByDeal[dealID], task.ID)
	s.touchDealLocked(dealID)
	return *task, nil
}

// TaskPatch carries the optional fields of a task update.
type TaskPatch struct {
	Title      *string
	AssignedTo *string
	DueAt      *time.Time
	Status     *string
}

// UpdateTask applies the patch and touches the parent deal.
func (s *Store) UpdateTask(taskID string, patch TaskPatch) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.st.tasksByID[taskID]
	if !ok {
		return domain.Task{}, apperrors.NotFound("Task not found")
	}
	if patch.Status != nil {
		status := domain.TaskStatus(*patch.Status)
		if !status.Valid() {
			return domain.Task{}, apperrors.InvalidRequest("Invalid status")
		}
		task.Status = status
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.AssignedTo != nil {
		task.AssignedTo = patch.AssignedTo
	}
	if patch.DueAt != nil {
		task.DueAt = patch.DueAt
	}
	s.touchDealLocked(task.DealID)
	return *task, nil
}

// SuggestionsForDeal returns all suggestions recorded for the deal.
func (s *Store) SuggestionsForDeal(dealID string) []domain.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Suggestion(nil), s.st.suggestionsByDeal[dealID]...)
}

// AddSuggestion records a suggestion for an existing deal, generating an id
// when absent, and touches the deal.
func (s *Store) AddSuggestion(dealID string, suggestion domain.Suggestion) (domain.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.deals[dealID]; !ok {
		return domain.Suggestion{}, errDealNotFound()
	}
	if suggestion.ID == "" {
		suggestion.ID = NewID("sug")
	}
	suggestion.DealID = dealID
	if !suggestion.Severity.Valid() {
		return domain.Suggestion{}, apperrors.InvalidRequest("Invalid severity")
	}
	s.st.suggestionsByDeal[dealID] = append(s.st.suggestionsByDeal[dealID], suggestion)
	s.touchDealLocked(dealID)
	return suggestion, nil
}

// TermSheetForDeal returns the deal's term sheet.
func (s *Store) TermSheetForDeal(dealID string) (domain.TermSheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.st.termSheets[dealID]
	if !ok {
		return domain.TermSheet{}, apperrors.NotFound("Term sheet not found")
	}
	return cloneTermSheet(ts), nil
}

// UpsertTermSheet replaces the deal's term sheet and touches the deal.
// The sheet id is derived from the deal id; lastEditedAt defaults to now.
func (s *Store) UpsertTermSheet(dealID string, sheet domain.TermSheet) (domain.TermSheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.deals[dealID]; !ok {
		return domain.TermSheet{}, errDealNotFound()
	}
	sheet.DealID = dealID
	if sheet.ID == "" {
		sheet.ID = "ts_" + dealID
	}
	if sheet.LastEditedAt.IsZero() {
		sheet.LastEditedAt = s.now()
	}
	stored := sheet
	s.st.termSheets[dealID] = &stored
	s.touchDealLocked(dealID)
	return cloneTermSheet(&stored), nil
}

// ActivityForDeal returns up to limit of the deal's newest activity entries.
func (s *Store) ActivityForDeal(dealID string, limit int) []domain.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.st.activityByDeal[dealID]
	n := len(events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ActivityEvent, 0, n)
	for _, ev := range events[:n] {
		out = append(out, cloneActivity(ev))
	}
	return out
}

// AppendActivity records an audit-log entry for an existing deal, generating
// id and timestamp when absent, and keeps the log sorted newest first.
func (s *Store) AppendActivity(dealID string, event domain.ActivityEvent) (domain.ActivityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.st.deals[dealID]; !ok {
		return domain.ActivityEvent{}, errDealNotFound()
	}
	if event.ID == "" {
		event.ID = NewID("act")
	}
	if event.At.IsZero() {
		event.At = s.now()
	}
	event.DealID = dealID
	s.st.activityByDeal[dealID] = append(s.st.activityByDeal[dealID], event)
	sortActivityDesc(s.st.activityByDeal[dealID])
	s.touchDealLocked(dealID)
	return cloneActivity(event), nil
}

func cloneDocument(d *domain.DocumentRequest) domain.DocumentRequest {
	return *d
}

func cloneTermSheet(t *domain.TermSheet) domain.TermSheet {
	clone := *t
	clone.Covenants = append([]string(nil), t.Covenants...)
	clone.Conditions = append([]string(nil), t.Conditions...)
	return clone
}

func cloneActivity(ev domain.ActivityEvent) domain.ActivityEvent {
	clone := ev
	if ev.Payload != nil {
		clone.Payload = make(map[string]any, len(ev.Payload))
		for k, v := range ev.Payload {
			clone.Payload[k] = v
		}
	}
	return clone
}
