package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
)

// User-visible schedule errors. The wording is part of the product
// contract; the frontend matches on it.
const (
	MsgNoActivePlan        = "Nenhum plano de estudo ativo encontrado"
	MsgNoActiveWeek        = "Nenhuma semana de estudo encontrada para o período"
	MsgSubjectNotScheduled = "Matéria não encontrada na semana atual"
)

type PlanService struct {
	plans *repository.PlanRepo
	loc   *time.Location
}

func NewPlanService(plans *repository.PlanRepo, loc *time.Location) *PlanService {
	if loc == nil {
		loc = time.Local
	}
	return &PlanService{plans: plans, loc: loc}
}

// CreatePlan lays out consecutive 7-day weeks from the start date and
// stores the per-week subject allocations.
func (s *PlanService) CreatePlan(ctx context.Context, userID uuid.UUID, req models.CreatePlanRequest) (*models.StudyPlan, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	}
	if len(req.Weeks) == 0 {
		fields["weeks"] = "At least one week is required"
	}
	startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, s.loc)
	if err != nil {
		fields["start_date"] = "Start date must be in YYYY-MM-DD format"
	}
	for wi, week := range req.Weeks {
		if len(week.Subjects) == 0 {
			fields["weeks"] = fmt.Sprintf("Week %d has no subjects", wi+1)
		}
		for _, alloc := range week.Subjects {
			if strings.TrimSpace(alloc.Subject) == "" {
				fields["weeks"] = fmt.Sprintf("Week %d has a subject without a name", wi+1)
			}
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var concursoID *uuid.UUID
	if req.ConcursoID != nil && *req.ConcursoID != "" {
		id, err := uuid.Parse(*req.ConcursoID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"concurso_id": "Invalid concurso id"}}
		}
		concursoID = &id
	}

	plan := &models.StudyPlan{
		UserID:     userID,
		ConcursoID: concursoID,
		Title:      strings.TrimSpace(req.Title),
		StartDate:  startDate,
		EndDate:    startDate.AddDate(0, 0, 7*len(req.Weeks)-1),
	}

	for wi, weekReq := range req.Weeks {
		week := models.PlanWeek{
			WeekIndex: wi + 1,
			StartDate: startDate.AddDate(0, 0, 7*wi),
			EndDate:   startDate.AddDate(0, 0, 7*wi+6),
		}
		for _, allocReq := range weekReq.Subjects {
			week.Subjects = append(week.Subjects, models.SubjectAlloc{
				Subject:          strings.TrimSpace(allocReq.Subject),
				PlannedMinutes:   allocReq.PlannedMinutes,
				PlannedQuestions: allocReq.PlannedQuestions,
			})
		}
		plan.Weeks = append(plan.Weeks, week)
	}

	if err := s.plans.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create study plan: %w", err)
	}
	return plan, nil
}

func (s *PlanService) ListPlans(ctx context.Context, userID uuid.UUID) ([]*models.StudyPlan, error) {
	plans, err := s.plans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list study plans: %w", err)
	}
	return plans, nil
}

// AddStudyTime credits realized minutes to the subject scheduled for
// today. The three lookup failures are distinct, user-visible errors.
func (s *PlanService) AddStudyTime(ctx context.Context, userID uuid.UUID, req models.AddProgressRequest) (*models.SubjectAlloc, error) {
	alloc, err := s.locateTodayAlloc(ctx, userID, req.Subject, req.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.plans.AddRealizedMinutes(ctx, alloc.ID, req.Amount); err != nil {
		return nil, fmt.Errorf("failed to add study time: %w", err)
	}
	alloc.RealizedMinutes += req.Amount
	return alloc, nil
}

// AddQuestions credits realized questions, same lookup path.
func (s *PlanService) AddQuestions(ctx context.Context, userID uuid.UUID, req models.AddProgressRequest) (*models.SubjectAlloc, error) {
	alloc, err := s.locateTodayAlloc(ctx, userID, req.Subject, req.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.plans.AddRealizedQuestions(ctx, alloc.ID, req.Amount); err != nil {
		return nil, fmt.Errorf("failed to add questions: %w", err)
	}
	alloc.RealizedQuestions += req.Amount
	return alloc, nil
}

func (s *PlanService) locateTodayAlloc(ctx context.Context, userID uuid.UUID, subject string, amount int) (*models.SubjectAlloc, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(subject) == "" {
		fields["subject"] = "Subject is required"
	}
	if amount <= 0 {
		fields["amount"] = "Amount must be positive"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	today := time.Now().In(s.loc)

	plan, err := s.plans.FindActive(ctx, userID, today)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: MsgNoActivePlan}
		}
		return nil, fmt.Errorf("failed to find active plan: %w", err)
	}

	week, ok := activeWeek(plan.Weeks, today)
	if !ok {
		return nil, &NotFoundError{Message: MsgNoActiveWeek}
	}

	alloc, ok := allocForSubject(week, subject)
	if !ok {
		return nil, &NotFoundError{Message: MsgSubjectNotScheduled}
	}
	return alloc, nil
}

func (s *PlanService) Summary(ctx context.Context, userID, planID uuid.UUID) (*models.PlanSummary, error) {
	plan, err := s.authorizePlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	summary := summarizePlan(plan)
	return &summary, nil
}

func (s *PlanService) GetPlan(ctx context.Context, userID, planID uuid.UUID) (*models.StudyPlan, error) {
	return s.authorizePlan(ctx, userID, planID)
}

// ResetAllocProgress zeroes one allocation's realized counters. This is
// the only operation allowed to decrement them.
func (s *PlanService) ResetAllocProgress(ctx context.Context, userID, allocID uuid.UUID) error {
	if _, err := s.authorizeAlloc(ctx, userID, allocID); err != nil {
		return err
	}
	if err := s.plans.ResetAlloc(ctx, allocID); err != nil {
		return fmt.Errorf("failed to reset allocation: %w", err)
	}
	return nil
}

func (s *PlanService) SetAllocCompleted(ctx context.Context, userID, allocID uuid.UUID, completed bool) error {
	if _, err := s.authorizeAlloc(ctx, userID, allocID); err != nil {
		return err
	}
	if err := s.plans.SetCompleted(ctx, allocID, completed); err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	return nil
}

func (s *PlanService) authorizePlan(ctx context.Context, userID, planID uuid.UUID) (*models.StudyPlan, error) {
	plan, err := s.plans.GetOwned(ctx, userID, planID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Message: "Study plan not found"}
		case errors.Is(err, repository.ErrForbidden):
			return nil, &ForbiddenError{Message: "Study plan belongs to another user"}
		default:
			return nil, fmt.Errorf("failed to load study plan: %w", err)
		}
	}
	return plan, nil
}

func (s *PlanService) authorizeAlloc(ctx context.Context, userID, allocID uuid.UUID) (*models.SubjectAlloc, error) {
	alloc, err := s.plans.GetAllocOwned(ctx, userID, allocID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Message: "Subject allocation not found"}
		case errors.Is(err, repository.ErrForbidden):
			return nil, &ForbiddenError{Message: "Subject allocation belongs to another user"}
		default:
			return nil, fmt.Errorf("failed to load allocation: %w", err)
		}
	}
	return alloc, nil
}

// activeWeek picks the week whose date range covers the given day.
// Date-only comparison, so a week ending today still counts.
func activeWeek(weeks []models.PlanWeek, day time.Time) (*models.PlanWeek, bool) {
	d := day.Format("2006-01-02")
	for i := range weeks {
		start := weeks[i].StartDate.Format("2006-01-02")
		end := weeks[i].EndDate.Format("2006-01-02")
		if d >= start && d <= end {
			return &weeks[i], true
		}
	}
	return nil, false
}

func allocForSubject(week *models.PlanWeek, subject string) (*models.SubjectAlloc, bool) {
	subject = strings.TrimSpace(subject)
	for i := range week.Subjects {
		if strings.EqualFold(week.Subjects[i].Subject, subject) {
			return &week.Subjects[i], true
		}
	}
	return nil, false
}

func summarizePlan(plan *models.StudyPlan) models.PlanSummary {
	summary := models.PlanSummary{PlanID: plan.ID, Title: plan.Title}

	for _, week := range plan.Weeks {
		for _, alloc := range week.Subjects {
			summary.PlannedMinutes += alloc.PlannedMinutes
			summary.RealizedMinutes += alloc.RealizedMinutes
			summary.PlannedQuestions += alloc.PlannedQuestions
			summary.RealizedQuestions += alloc.RealizedQuestions
			summary.SubjectCount++
			if alloc.Completed {
				summary.CompletedSubjects++
			}
		}
	}

	if summary.SubjectCount > 0 {
		summary.CompletionPercent = 100 * float64(summary.CompletedSubjects) / float64(summary.SubjectCount)
	}
	if len(plan.Weeks) > 0 {
		summary.AvgMinutesPerWeek = float64(summary.RealizedMinutes) / float64(len(plan.Weeks))
	}
	return summary
}
