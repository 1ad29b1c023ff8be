package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"equipment-maintenance-backend/internal/model"
	"equipment-maintenance-backend/internal/predict"
	"equipment-maintenance-backend/internal/store"
)

// ErrForbidden is returned when the caller's role lacks the capability for a
// transition. Nothing is mutated in that case.
var ErrForbidden = errors.New("role lacks required capability")

// ErrInvalidStatus is returned for a progress update outside the closed
// status set.
var ErrInvalidStatus = errors.New("invalid ticket status")

// ErrNotCompleted is returned when review is attempted on a ticket that has
// not been completed.
var ErrNotCompleted = errors.New("ticket is not completed")

// Notifier receives pending-review events. Implementations must not block.
type Notifier interface {
	NotifyPendingReview(maintenanceID, equipmentID string)
}

// Service drives the maintenance-ticket state machine and the prediction
// pipeline. Both sides meet only at the prediction store.
type Service struct {
	store    store.Store
	engine   *predict.Engine
	notifier Notifier
	now      func() time.Time
}

// NewService creates a lifecycle service. notifier may be nil.
func NewService(st store.Store, engine *predict.Engine, notifier Notifier) *Service {
	return &Service{
		store:    st,
		engine:   engine,
		notifier: notifier,
		now:      time.Now,
	}
}

// ScheduleRequest carries the caller-supplied fields for a new ticket.
type ScheduleRequest struct {
	EquipmentID      string
	MaintenanceType  string
	Date             string
	IssueDescription string
	TechnicianID     string
}

// Schedule creates a new ticket in Scheduled/Pending with a freshly
// allocated ID. Requires the schedule capability and an existing device.
func (s *Service) Schedule(ctx context.Context, role Role, req ScheduleRequest) (model.MaintenanceTicket, error) {
	if !role.Can(CapSchedule) {
		return model.MaintenanceTicket{}, ErrForbidden
	}
	if _, err := s.store.FetchEquipment(ctx, req.EquipmentID); err != nil {
		return model.MaintenanceTicket{}, err
	}

	ticket := model.MaintenanceTicket{
		EquipmentID:      req.EquipmentID,
		Date:             req.Date,
		MaintenanceType:  req.MaintenanceType,
		Status:           model.StatusScheduled,
		CompletionStatus: model.CompletionPending,
		IssueDescription: req.IssueDescription,
		TechnicianID:     req.TechnicianID,
	}
	if err := s.allocateAndInsert(ctx, &ticket); err != nil {
		return model.MaintenanceTicket{}, err
	}
	return ticket, nil
}

var validProgressStatuses = map[string]bool{
	model.StatusScheduled:  true,
	model.StatusInProgress: true,
	model.StatusCompleted:  true,
}

// UpdateProgress records a technician's status update. The status is
// validated against the closed status set.
func (s *Service) UpdateProgress(ctx context.Context, role Role, maintenanceID, status string) error {
	if !role.Can(CapUpdateProgress) {
		return ErrForbidden
	}
	if !validProgressStatuses[status] {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.UpdateTicket(ctx, maintenanceID, map[string]any{"status": status})
}

// Completion carries the technician's completion submission.
type Completion struct {
	DowntimeHours float64
	Cost          float64
	TechnicianID  string
}

// MarkComplete moves a ticket to Completed/Pending and hands it to the
// review loop. Reviewers are notified asynchronously.
func (s *Service) MarkComplete(ctx context.Context, role Role, maintenanceID string, c Completion) error {
	if !role.Can(CapMarkComplete) {
		return ErrForbidden
	}
	err := s.store.UpdateTicket(ctx, maintenanceID, map[string]any{
		"downtime_hours":    c.DowntimeHours,
		"cost_inr":          c.Cost,
		"technician_id":     c.TechnicianID,
		"status":            model.StatusCompleted,
		"completion_status": model.CompletionPending,
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		ticket, err := s.store.GetTicket(ctx, maintenanceID)
		if err == nil {
			s.notifier.NotifyPendingReview(maintenanceID, ticket.EquipmentID)
		}
	}
	return nil
}

// ReviewOutcome reports the statuses a review left behind.
type ReviewOutcome struct {
	Status           string
	CompletionStatus string
}

// Review applies a reviewer's decision to a completed ticket. Approval keeps
// the ticket Completed; anything else sends it back to Scheduled with the
// corresponding completion status, re-entering the loop.
func (s *Service) Review(ctx context.Context, role Role, maintenanceID string, rating int, decision string) (ReviewOutcome, error) {
	if !role.Can(CapReview) {
		return ReviewOutcome{}, ErrForbidden
	}

	ticket, err := s.store.GetTicket(ctx, maintenanceID)
	if err != nil {
		return ReviewOutcome{}, err
	}
	if ticket.Status != model.StatusCompleted {
		return ReviewOutcome{}, ErrNotCompleted
	}

	outcome := ReviewOutcome{Status: model.StatusScheduled}
	switch decision {
	case model.CompletionApproved:
		outcome = ReviewOutcome{Status: model.StatusCompleted, CompletionStatus: model.CompletionApproved}
	case model.CompletionRequiresFollowUp:
		outcome.CompletionStatus = model.CompletionRequiresFollowUp
	default:
		outcome.CompletionStatus = model.CompletionRejected
	}

	err = s.store.UpdateTicket(ctx, maintenanceID, map[string]any{
		"completion_status": outcome.CompletionStatus,
		"service_rating":    rating,
		"status":            outcome.Status,
	})
	if err != nil {
		return ReviewOutcome{}, err
	}
	return outcome, nil
}

// Confirm is the shortcut path: the reviewer accepts the work directly,
// setting Completed/Confirmed with a service rating.
func (s *Service) Confirm(ctx context.Context, role Role, maintenanceID string, rating int) error {
	if !role.Can(CapConfirm) {
		return ErrForbidden
	}
	return s.store.UpdateTicket(ctx, maintenanceID, map[string]any{
		"status":            model.StatusCompleted,
		"completion_status": model.CompletionConfirmed,
		"service_rating":    rating,
	})
}

// Delete permanently removes a ticket. Admin-only.
func (s *Service) Delete(ctx context.Context, role Role, maintenanceID string) error {
	if !role.Can(CapDelete) {
		return ErrForbidden
	}
	return s.store.DeleteTicket(ctx, maintenanceID)
}

// PredictAll runs the full batch pipeline: window, scale, fuse, persist.
// The returned slice is empty when no device reached window length; that is
// a "nothing to predict" outcome, not an error.
func (s *Service) PredictAll(ctx context.Context) ([]predict.Prediction, error) {
	logs, err := s.store.FetchAllUsageLogs(ctx)
	if err != nil {
		return nil, err
	}

	results := s.engine.PredictBatch(logs)
	if len(results) == 0 {
		return nil, nil
	}

	today := s.now().UTC().Format("2006-01-02")
	preds := make([]model.FailurePrediction, len(results))
	for i, r := range results {
		preds[i] = model.FailurePrediction{
			EquipmentID:        r.EquipmentID,
			PredictionDate:     today,
			NeedsMaintenance:   r.MaintenanceNeeded == 1,
			FailureProbability: r.ConfidenceScore,
		}
	}
	if err := s.store.UpsertPredictions(ctx, preds); err != nil {
		return nil, err
	}
	return results, nil
}

// AssessPriority aggregates the device's history, classifies the three
// maintenance types and upserts the assessment. Unknown devices surface
// store.ErrNotFound before any classifier runs.
func (s *Service) AssessPriority(ctx context.Context, equipmentID string) (model.PriorityAssessment, error) {
	metrics, err := s.store.EquipmentMetrics(ctx, equipmentID)
	if err != nil {
		return model.PriorityAssessment{}, err
	}

	ageYears := int(s.now().Sub(metrics.InstallationDate).Hours() / 24 / 365)
	labels := s.engine.ClassifyPriority(predict.PriorityInput{
		EquipmentAgeYears: float64(ageYears),
		DowntimeHours:     metrics.DowntimeHours,
		NumFailures:       float64(metrics.NumFailures),
		ResponseTimeHours: metrics.AvgResponseHours,
		NeedsMaintenance:  metrics.NeedsMaintenance,
	})

	assessment := model.PriorityAssessment{
		EquipmentID:     equipmentID,
		PredictedToFail: metrics.NeedsMaintenance,
		Preventive:      labels.Preventive,
		Corrective:      labels.Corrective,
		Replacement:     labels.Replacement,
		LastUpdated:     s.now().UTC(),
	}
	if err := s.store.UpsertPriorityAssessment(ctx, assessment); err != nil {
		return model.PriorityAssessment{}, err
	}
	return assessment, nil
}

// HealthEntry is one device's aggregate health verdict.
type HealthEntry struct {
	EquipmentID  string `json:"equipment_id"`
	HealthStatus string `json:"health_status"`
	Message      string `json:"message"`
}

// HealthStatus evaluates every registered device and reports the ones
// needing attention. Devices whose evaluation fails are skipped and logged
// rather than failing the batch; partial results are the contract here.
func (s *Service) HealthStatus(ctx context.Context, role Role) ([]HealthEntry, error) {
	if !role.Can(CapViewHealth) {
		return nil, ErrForbidden
	}

	ids, err := s.store.ListEquipmentIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]HealthEntry, 0)
	for _, id := range ids {
		assessment, err := s.AssessPriority(ctx, id)
		if err != nil {
			log.Printf("health status: skipping %s: %v", id, err)
			continue
		}

		var msgs []string
		if assessment.PredictedToFail {
			msgs = append(msgs, "Likely to fail in 10 days")
		}
		for _, entry := range []struct {
			name  string
			level model.PriorityLevel
		}{
			{"Preventive", assessment.Preventive},
			{"Corrective", assessment.Corrective},
			{"Replacement", assessment.Replacement},
		} {
			if entry.level == model.PriorityHigh {
				msgs = append(msgs, entry.name+" maintenance needed")
			}
		}

		if len(msgs) > 0 {
			results = append(results, HealthEntry{
				EquipmentID:  id,
				HealthStatus: "Attention Needed",
				Message:      strings.Join(msgs, "; "),
			})
		}
	}
	return results, nil
}
