package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
)

// MiniSessionPrefix marks auto-labeled single reading bursts that have
// not been merged into a user-named session yet. Named-session detection
// keys off this prefix, so the prefix is part of the persisted data
// contract.
const MiniSessionPrefix = "Mini Sessão - "

const historyWindowDays = 30

func IsMiniSessionLabel(label string) bool {
	return strings.HasPrefix(label, MiniSessionPrefix)
}

type ProgressService struct {
	materials *repository.MaterialRepo
	events    *repository.ReadingEventRepo
	loc       *time.Location
}

func NewProgressService(materials *repository.MaterialRepo, events *repository.ReadingEventRepo, loc *time.Location) *ProgressService {
	if loc == nil {
		loc = time.Local
	}
	return &ProgressService{materials: materials, events: events, loc: loc}
}

// RecordEvent appends one reading burst. Unlabeled bursts get the
// mini-session auto label so they can later be merged by name.
func (s *ProgressService) RecordEvent(ctx context.Context, userID, materialID uuid.UUID, req models.RecordReadingEventRequest) (*models.ReadingEvent, error) {
	material, err := s.authorizeMaterial(ctx, userID, materialID)
	if err != nil {
		return nil, err
	}

	if req.PageReached < 0 {
		return nil, &ValidationError{Fields: map[string]string{"page_reached": "Page must not be negative"}}
	}
	if req.SecondsSpent < 0 {
		return nil, &ValidationError{Fields: map[string]string{"seconds_spent": "Time spent must not be negative"}}
	}
	if material.TotalPages > 0 && req.PageReached > material.TotalPages {
		req.PageReached = material.TotalPages
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Geral"
	}
	label := MiniSessionPrefix + subject

	event := &models.ReadingEvent{
		MaterialID:   materialID,
		PageReached:  req.PageReached,
		SecondsSpent: req.SecondsSpent,
		OccurredAt:   time.Now().In(s.loc),
		SessionLabel: &label,
		Subjects:     &subject,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record reading event: %w", err)
	}
	return event, nil
}

// TodayActivity returns the current calendar day's bucket.
func (s *ProgressService) TodayActivity(ctx context.Context, userID, materialID uuid.UUID) (*models.DayActivity, error) {
	if _, err := s.authorizeMaterial(ctx, userID, materialID); err != nil {
		return nil, err
	}

	now := time.Now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	events, err := s.events.ListSince(ctx, materialID, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading events: %w", err)
	}

	activity := buildDayActivity(dayStart.Format("2006-01-02"), events)
	return &activity, nil
}

// History aggregates the trailing 30-day window into calendar-date
// buckets plus window-level statistics.
func (s *ProgressService) History(ctx context.Context, userID, materialID uuid.UUID) (*models.ReadingHistory, error) {
	if _, err := s.authorizeMaterial(ctx, userID, materialID); err != nil {
		return nil, err
	}

	now := time.Now().In(s.loc)
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -(historyWindowDays - 1))

	events, err := s.events.ListSince(ctx, materialID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading events: %w", err)
	}

	history := buildHistory(events, s.loc)
	return &history, nil
}

// ListSessions reconstructs named study sessions by grouping labeled,
// non-mini events.
func (s *ProgressService) ListSessions(ctx context.Context, userID, materialID uuid.UUID) ([]models.StudySessionView, error) {
	if _, err := s.authorizeMaterial(ctx, userID, materialID); err != nil {
		return nil, err
	}

	events, err := s.events.ListByMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading events: %w", err)
	}

	return groupNamedSessions(events), nil
}

// MergeSessions groups mini-session events under a user-chosen name and
// subject. The whole batch is validated first: if any referenced event
// does not belong to the material, or is already part of a named
// session, nothing is mutated and the error names the offending ids.
func (s *ProgressService) MergeSessions(ctx context.Context, userID, materialID uuid.UUID, req models.MergeSessionsRequest) error {
	material, err := s.authorizeMaterial(ctx, userID, materialID)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	fields := make(map[string]string)
	if name == "" {
		fields["name"] = "Session name is required"
	}
	if IsMiniSessionLabel(name) {
		fields["name"] = "Session name must not use the mini-session prefix"
	}
	if subject == "" {
		fields["subject"] = "Subject is required"
	}
	if len(req.EventIDs) == 0 {
		fields["event_ids"] = "At least one event is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	events, err := s.events.GetByIDs(ctx, materialID, req.EventIDs)
	if err != nil {
		return fmt.Errorf("failed to load reading events: %w", err)
	}

	updates, offending := planMerge(events, req.EventIDs, name, subject)
	if len(offending) > 0 {
		return &ValidationError{Fields: map[string]string{
			"event_ids": fmt.Sprintf("Events cannot be merged: %s", strings.Join(offending, ", ")),
		}}
	}

	if err := s.events.ApplyMerge(ctx, updates); err != nil {
		return fmt.Errorf("failed to apply session merge: %w", err)
	}

	maxPage := 0
	for _, e := range events {
		if e.PageReached > maxPage {
			maxPage = e.PageReached
		}
	}
	return s.persistPagesRead(ctx, material, maxPage)
}

// ResolveProgress recomputes the canonical pages-read value from fully
// named, subject-tagged sessions and caches it on the material. An empty
// qualifying set resets progress to zero on purpose: relabeling away the
// last named session withdraws its pages.
func (s *ProgressService) ResolveProgress(ctx context.Context, userID, materialID uuid.UUID) (*models.Material, error) {
	material, err := s.authorizeMaterial(ctx, userID, materialID)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListByMaterial(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reading events: %w", err)
	}

	pagesRead := canonicalPagesRead(events)
	if err := s.persistPagesRead(ctx, material, pagesRead); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *ProgressService) authorizeMaterial(ctx context.Context, userID, materialID uuid.UUID) (*models.Material, error) {
	return resolveOwnedMaterial(ctx, s.materials, userID, materialID)
}

func (s *ProgressService) persistPagesRead(ctx context.Context, material *models.Material, pagesRead int) error {
	pagesRead = clampPages(pagesRead, material.TotalPages)
	if err := s.materials.UpdatePagesRead(ctx, material.ID, pagesRead); err != nil {
		return fmt.Errorf("failed to update pages read: %w", err)
	}
	material.PagesRead = pagesRead
	material.UpdatedAt = time.Now().In(s.loc)
	return nil
}

// clampPages keeps the cached counter inside [0, totalPages], matching
// the CHECK constraint on materials.pages_read. A material with an
// unknown total (0, e.g. a video whose metadata fetch failed) stays
// pinned at 0 until the total is known.
func clampPages(pages, totalPages int) int {
	if pages < 0 || totalPages < 0 {
		return 0
	}
	if pages > totalPages {
		return totalPages
	}
	return pages
}

// dayPagesRead attributes pages to one calendar day's events. The first
// event is credited with its full pageReached (read-from-page-1
// approximation, kept for parity with the historical numbers); each
// later event is credited max(1, delta to the previous event), so a
// backward jump counts as a single revisited page.
func dayPagesRead(events []models.ReadingEvent) int {
	if len(events) == 0 {
		return 0
	}

	sorted := make([]models.ReadingEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	total := sorted[0].PageReached
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].PageReached - sorted[i-1].PageReached
		if delta < 1 {
			delta = 1
		}
		total += delta
	}
	return total
}

func buildDayActivity(date string, events []models.ReadingEvent) models.DayActivity {
	activity := models.DayActivity{Date: date}
	seconds := 0
	for _, e := range events {
		if e.PageReached > activity.MaxPage {
			activity.MaxPage = e.PageReached
		}
		seconds += e.SecondsSpent
	}
	activity.PagesRead = dayPagesRead(events)
	activity.Sessions = len(events)
	activity.Minutes = seconds / 60
	return activity
}

// buildHistory buckets events by calendar date in the given location and
// derives window statistics. Averages are zero when no day has activity.
func buildHistory(events []models.ReadingEvent, loc *time.Location) models.ReadingHistory {
	buckets := make(map[string][]models.ReadingEvent)
	for _, e := range events {
		key := e.OccurredAt.In(loc).Format("2006-01-02")
		buckets[key] = append(buckets[key], e)
	}

	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	history := models.ReadingHistory{}
	for _, d := range dates {
		day := buildDayActivity(d, buckets[d])
		history.Days = append(history.Days, day)
		history.TotalPages += day.PagesRead
		history.TotalSessions += day.Sessions
		history.TotalMinutes += day.Minutes
		if day.MaxPage > history.MaxPage {
			history.MaxPage = day.MaxPage
		}
	}

	history.ActiveDays = len(history.Days)
	if history.ActiveDays > 0 {
		history.AvgPagesDay = float64(history.TotalPages) / float64(history.ActiveDays)
		history.AvgMinutesDay = float64(history.TotalMinutes) / float64(history.ActiveDays)
	}
	return history
}

// canonicalPagesRead is the progress resolver core: only events carrying
// a user-chosen session name and a subject tag count.
func canonicalPagesRead(events []models.ReadingEvent) int {
	maxPage := 0
	for _, e := range events {
		if e.SessionLabel == nil || *e.SessionLabel == "" || IsMiniSessionLabel(*e.SessionLabel) {
			continue
		}
		if e.Subjects == nil || *e.Subjects == "" {
			continue
		}
		if e.PageReached > maxPage {
			maxPage = e.PageReached
		}
	}
	return maxPage
}

// planMerge validates the whole batch and, when it is clean, produces
// the per-event label updates. Returned offending ids abort the merge.
func planMerge(events []models.ReadingEvent, requested []uuid.UUID, name, subject string) ([]repository.EventLabelUpdate, []string) {
	found := make(map[uuid.UUID]models.ReadingEvent, len(events))
	for _, e := range events {
		found[e.ID] = e
	}

	var offending []string
	var updates []repository.EventLabelUpdate
	for _, id := range requested {
		e, ok := found[id]
		if !ok {
			offending = append(offending, id.String())
			continue
		}
		if e.SessionLabel != nil && *e.SessionLabel != "" && !IsMiniSessionLabel(*e.SessionLabel) {
			offending = append(offending, id.String())
			continue
		}

		existing := ""
		if e.Subjects != nil {
			existing = *e.Subjects
		}
		updates = append(updates, repository.EventLabelUpdate{
			EventID:  id,
			Label:    name,
			Subjects: mergeSubjects(existing, subject),
		})
	}

	if len(offending) > 0 {
		return nil, offending
	}
	return updates, nil
}

// mergeSubjects concatenates the chosen subject with any pre-existing
// per-event subjects, de-duplicated, original order preserved.
func mergeSubjects(existing, subject string) string {
	seen := make(map[string]bool)
	var merged []string
	for _, part := range append(strings.Split(existing, ","), strings.Split(subject, ",")...) {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		merged = append(merged, part)
	}
	return strings.Join(merged, ", ")
}

func groupNamedSessions(events []models.ReadingEvent) []models.StudySessionView {
	byName := make(map[string]*models.StudySessionView)
	var order []string
	seconds := make(map[string]int)

	for _, e := range events {
		if e.SessionLabel == nil || *e.SessionLabel == "" || IsMiniSessionLabel(*e.SessionLabel) {
			continue
		}
		name := *e.SessionLabel
		view, ok := byName[name]
		if !ok {
			view = &models.StudySessionView{Name: name, FirstEvent: e.OccurredAt, LastEvent: e.OccurredAt}
			byName[name] = view
			order = append(order, name)
		}
		view.Events++
		if e.PageReached > view.MaxPage {
			view.MaxPage = e.PageReached
		}
		if e.Subjects != nil && *e.Subjects != "" {
			view.Subjects = mergeSubjects(view.Subjects, *e.Subjects)
		}
		if e.OccurredAt.Before(view.FirstEvent) {
			view.FirstEvent = e.OccurredAt
		}
		if e.OccurredAt.After(view.LastEvent) {
			view.LastEvent = e.OccurredAt
		}
		seconds[name] += e.SecondsSpent
	}

	sessions := make([]models.StudySessionView, 0, len(order))
	for _, name := range order {
		view := byName[name]
		view.Minutes = seconds[name] / 60
		sessions = append(sessions, *view)
	}
	return sessions
}
