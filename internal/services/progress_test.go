package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"concurseiro-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func eventAt(t time.Time, page, seconds int) models.ReadingEvent {
	return models.ReadingEvent{
		ID:           uuid.New(),
		PageReached:  page,
		SecondsSpent: seconds,
		OccurredAt:   t,
	}
}

func TestDayPagesRead(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		pages    []int
		expected int
	}{
		{"no events", nil, 0},
		{"single event credits full page", []int{5}, 5},
		{"forward progress", []int{5, 12}, 12},
		{"backward jump counts one page", []int{5, 12, 9}, 13},
		{"same page counts one page", []int{7, 7}, 8},
		{"all backward", []int{20, 10, 5}, 22},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var events []models.ReadingEvent
			for i, p := range tc.pages {
				events = append(events, eventAt(base.Add(time.Duration(i)*time.Minute), p, 60))
			}

			got := dayPagesRead(events)
			if got != tc.expected {
				t.Errorf("Expected %d pages, got %d", tc.expected, got)
			}
		})
	}
}

func TestDayPagesRead_UnorderedInput(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Same events as the backward-jump case, delivered out of order.
	events := []models.ReadingEvent{
		eventAt(base.Add(2*time.Minute), 9, 60),
		eventAt(base, 5, 60),
		eventAt(base.Add(time.Minute), 12, 60),
	}

	if got := dayPagesRead(events); got != 13 {
		t.Errorf("Expected 13 pages, got %d", got)
	}
}

func TestDayPagesRead_AtLeastEventCount(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Every event past the first contributes at least one page, so the
	// total is never below the event count when the first page is >= 1.
	events := []models.ReadingEvent{
		eventAt(base, 1, 60),
		eventAt(base.Add(time.Minute), 1, 60),
		eventAt(base.Add(2*time.Minute), 1, 60),
	}

	if got := dayPagesRead(events); got < len(events) {
		t.Errorf("Expected at least %d pages, got %d", len(events), got)
	}
}

func TestBuildDayActivity(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []models.ReadingEvent{
		eventAt(base, 5, 600),
		eventAt(base.Add(time.Hour), 12, 900),
	}

	activity := buildDayActivity("2026-03-10", events)

	if activity.Date != "2026-03-10" {
		t.Errorf("Expected date 2026-03-10, got %q", activity.Date)
	}
	if activity.MaxPage != 12 {
		t.Errorf("Expected max page 12, got %d", activity.MaxPage)
	}
	if activity.PagesRead != 12 {
		t.Errorf("Expected 12 pages read, got %d", activity.PagesRead)
	}
	if activity.Sessions != 2 {
		t.Errorf("Expected 2 sessions, got %d", activity.Sessions)
	}
	if activity.Minutes != 25 {
		t.Errorf("Expected 25 minutes, got %d", activity.Minutes)
	}
}

func TestBuildHistory(t *testing.T) {
	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 12, 20, 0, 0, 0, time.UTC)

	events := []models.ReadingEvent{
		eventAt(day1, 5, 600),
		eventAt(day1.Add(time.Hour), 12, 600),
		eventAt(day2, 20, 1200),
	}

	history := buildHistory(events, time.UTC)

	if history.ActiveDays != 2 {
		t.Fatalf("Expected 2 active days, got %d", history.ActiveDays)
	}
	if history.Days[0].Date != "2026-03-10" || history.Days[1].Date != "2026-03-12" {
		t.Errorf("Expected ascending dates, got %q and %q", history.Days[0].Date, history.Days[1].Date)
	}
	if history.TotalPages != 32 {
		t.Errorf("Expected 32 total pages, got %d", history.TotalPages)
	}
	if history.TotalSessions != 3 {
		t.Errorf("Expected 3 total sessions, got %d", history.TotalSessions)
	}
	if history.MaxPage != 20 {
		t.Errorf("Expected max page 20, got %d", history.MaxPage)
	}
	if history.AvgPagesDay != 16 {
		t.Errorf("Expected avg 16 pages/day, got %f", history.AvgPagesDay)
	}
}

func TestBuildHistory_Empty(t *testing.T) {
	history := buildHistory(nil, time.UTC)

	if history.ActiveDays != 0 {
		t.Errorf("Expected 0 active days, got %d", history.ActiveDays)
	}
	if history.AvgPagesDay != 0 || history.AvgMinutesDay != 0 {
		t.Errorf("Expected zero averages, got %f and %f", history.AvgPagesDay, history.AvgMinutesDay)
	}
}

func TestCanonicalPagesRead(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	named := eventAt(base, 40, 600)
	named.SessionLabel = strPtr("Revisão Constitucional")
	named.Subjects = strPtr("Direito Constitucional")

	higherNamed := eventAt(base.Add(time.Hour), 55, 600)
	higherNamed.SessionLabel = strPtr("Revisão Constitucional")
	higherNamed.Subjects = strPtr("Direito Constitucional")

	mini := eventAt(base.Add(2*time.Hour), 80, 600)
	mini.SessionLabel = strPtr(MiniSessionPrefix + "Geral")
	mini.Subjects = strPtr("Geral")

	noSubject := eventAt(base.Add(3*time.Hour), 90, 600)
	noSubject.SessionLabel = strPtr("Sessão sem matéria")

	tests := []struct {
		name     string
		events   []models.ReadingEvent
		expected int
	}{
		{"no events", nil, 0},
		{"only mini sessions", []models.ReadingEvent{mini}, 0},
		{"named without subject is skipped", []models.ReadingEvent{noSubject}, 0},
		{"max over named events", []models.ReadingEvent{named, higherNamed}, 55},
		{"mini page higher than named is ignored", []models.ReadingEvent{named, higherNamed, mini}, 55},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := canonicalPagesRead(tc.events)
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestPlanMerge_AllOrNothing(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	mini := eventAt(base, 10, 600)
	mini.SessionLabel = strPtr(MiniSessionPrefix + "Geral")
	mini.Subjects = strPtr("Geral")

	alreadyNamed := eventAt(base.Add(time.Minute), 20, 600)
	alreadyNamed.SessionLabel = strPtr("Sessão antiga")
	alreadyNamed.Subjects = strPtr("Português")

	missing := uuid.New()

	events := []models.ReadingEvent{mini, alreadyNamed}
	requested := []uuid.UUID{mini.ID, alreadyNamed.ID, missing}

	updates, offending := planMerge(events, requested, "Maratona", "Português")
	if updates != nil {
		t.Error("Expected no updates when batch has offending events")
	}
	if len(offending) != 2 {
		t.Fatalf("Expected 2 offending ids, got %d", len(offending))
	}

	joined := strings.Join(offending, ", ")
	if !strings.Contains(joined, alreadyNamed.ID.String()) {
		t.Errorf("Expected already-named event id in %q", joined)
	}
	if !strings.Contains(joined, missing.String()) {
		t.Errorf("Expected missing event id in %q", joined)
	}
}

func TestPlanMerge_CleanBatch(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := eventAt(base, 10, 600)
	first.SessionLabel = strPtr(MiniSessionPrefix + "Geral")
	first.Subjects = strPtr("Geral")

	second := eventAt(base.Add(time.Minute), 15, 600)

	updates, offending := planMerge(
		[]models.ReadingEvent{first, second},
		[]uuid.UUID{first.ID, second.ID},
		"Maratona",
		"Português",
	)
	if offending != nil {
		t.Fatalf("Expected clean batch, got offending ids %v", offending)
	}
	if len(updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(updates))
	}
	if updates[0].Label != "Maratona" {
		t.Errorf("Expected label Maratona, got %q", updates[0].Label)
	}
	if updates[0].Subjects != "Geral, Português" {
		t.Errorf("Expected merged subjects, got %q", updates[0].Subjects)
	}
	if updates[1].Subjects != "Português" {
		t.Errorf("Expected only the chosen subject, got %q", updates[1].Subjects)
	}
}

func TestMergeSubjects(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		subject  string
		expected string
	}{
		{"empty existing", "", "Português", "Português"},
		{"appends new subject", "Geral", "Português", "Geral, Português"},
		{"deduplicates", "Português, Geral", "Português", "Português, Geral"},
		{"trims whitespace", " Geral ,  Matemática ", "Geral", "Geral, Matemática"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mergeSubjects(tc.existing, tc.subject)
			if got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestClampPages(t *testing.T) {
	tests := []struct {
		name     string
		pages    int
		total    int
		expected int
	}{
		{"within bounds", 50, 100, 50},
		{"negative to zero", -5, 100, 0},
		{"clamped to total", 150, 100, 100},
		{"unknown total pins at zero", 150, 0, 0},
		{"exactly at total", 100, 100, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := clampPages(tc.pages, tc.total)
			if got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestIsMiniSessionLabel(t *testing.T) {
	if !IsMiniSessionLabel(MiniSessionPrefix + "Geral") {
		t.Error("Expected auto label to be detected as mini session")
	}
	if IsMiniSessionLabel("Revisão Final") {
		t.Error("Expected user-chosen name to not be a mini session")
	}
}

func TestGroupNamedSessions(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	first := eventAt(base, 10, 600)
	first.SessionLabel = strPtr("Maratona")
	first.Subjects = strPtr("Português")

	second := eventAt(base.Add(time.Hour), 25, 1200)
	second.SessionLabel = strPtr("Maratona")
	second.Subjects = strPtr("Geral")

	mini := eventAt(base.Add(2*time.Hour), 99, 600)
	mini.SessionLabel = strPtr(MiniSessionPrefix + "Geral")
	mini.Subjects = strPtr("Geral")

	sessions := groupNamedSessions([]models.ReadingEvent{first, second, mini})

	if len(sessions) != 1 {
		t.Fatalf("Expected 1 named session, got %d", len(sessions))
	}

	s := sessions[0]
	if s.Name != "Maratona" {
		t.Errorf("Expected name Maratona, got %q", s.Name)
	}
	if s.Events != 2 {
		t.Errorf("Expected 2 events, got %d", s.Events)
	}
	if s.MaxPage != 25 {
		t.Errorf("Expected max page 25, got %d", s.MaxPage)
	}
	if s.Minutes != 30 {
		t.Errorf("Expected 30 minutes, got %d", s.Minutes)
	}
	if s.Subjects != "Português, Geral" {
		t.Errorf("Expected merged subjects, got %q", s.Subjects)
	}
	if !s.FirstEvent.Equal(base) || !s.LastEvent.Equal(base.Add(time.Hour)) {
		t.Errorf("Expected event range [%v, %v], got [%v, %v]", base, base.Add(time.Hour), s.FirstEvent, s.LastEvent)
	}
}
