package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipment-maintenance-backend/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID is returned when a ticket insert collides on maintenance_id.
var ErrDuplicateID = errors.New("duplicate maintenance id")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Log and profile sources.
	FetchAllUsageLogs(ctx context.Context) ([]model.UsageLog, error)
	FetchEquipment(ctx context.Context, equipmentID string) (model.Equipment, error)
	ListEquipmentIDs(ctx context.Context) ([]string, error)
	UsageSummary(ctx context.Context, equipmentID string) (UsageSummary, error)

	// Prediction store (last-write-wins per equipment_id).
	UpsertPredictions(ctx context.Context, preds []model.FailurePrediction) error
	GetFailurePrediction(ctx context.Context, equipmentID string) (model.FailurePrediction, error)
	UpsertPriorityAssessment(ctx context.Context, a model.PriorityAssessment) error
	GetPriorityAssessment(ctx context.Context, equipmentID string) (model.PriorityAssessment, error)

	// Aggregated history for the priority classifiers.
	EquipmentMetrics(ctx context.Context, equipmentID string) (EquipmentMetrics, error)

	// Maintenance tickets.
	MaxTicketNumber(ctx context.Context, prefix string) (int, bool, error)
	CreateTicket(ctx context.Context, t *model.MaintenanceTicket) error
	GetTicket(ctx context.Context, maintenanceID string) (model.MaintenanceTicket, error)
	UpdateTicket(ctx context.Context, maintenanceID string, fields map[string]any) error
	DeleteTicket(ctx context.Context, maintenanceID string) error
	ListTickets(ctx context.Context, status string) ([]model.MaintenanceTicket, error)
	ListTicketsByEquipment(ctx context.Context, equipmentID string) ([]model.MaintenanceTicket, error)
	ListUpcomingTickets(ctx context.Context, equipmentID, fromDate string) ([]model.MaintenanceTicket, error)
	ListPendingReviews(ctx context.Context) ([]model.MaintenanceTicket, error)
	ListScheduledFrom(ctx context.Context, fromDate string) ([]model.MaintenanceTicket, error)

	// Push subscriptions for pending-review alerts.
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) FetchAllUsageLogs(ctx context.Context) ([]model.UsageLog, error) {
	var logs []model.UsageLog
	if err := s.db.WithContext(ctx).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch usage logs: %w", err)
	}
	return logs, nil
}

func (s *gormStore) FetchEquipment(ctx context.Context, equipmentID string) (model.Equipment, error) {
	var eq model.Equipment
	err := s.db.WithContext(ctx).First(&eq, "equipment_id = ?", equipmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Equipment{}, ErrNotFound
	}
	if err != nil {
		return model.Equipment{}, fmt.Errorf("failed to fetch equipment %s: %w", equipmentID, err)
	}
	return eq, nil
}

func (s *gormStore) ListEquipmentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&model.Equipment{}).Pluck("equipment_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list equipment ids: %w", err)
	}
	return ids, nil
}

func (s *gormStore) UsageSummary(ctx context.Context, equipmentID string) (UsageSummary, error) {
	if _, err := s.FetchEquipment(ctx, equipmentID); err != nil {
		return UsageSummary{}, err
	}

	var row UsageSummary
	err := s.db.WithContext(ctx).
		Model(&model.UsageLog{}).
		Select("COALESCE(SUM(usage_hours), 0) as usage_hours, COALESCE(AVG(avg_cpu_temp), 0) as avg_cpu_temp, COALESCE(SUM(error_count), 0) as total_errors").
		Where("equipment_id = ?", equipmentID).
		Scan(&row).Error
	if err != nil {
		return UsageSummary{}, fmt.Errorf("failed to summarize usage for %s: %w", equipmentID, err)
	}
	row.EquipmentID = equipmentID
	return row, nil
}

// UpsertPredictions replaces the stored prediction for every device in the
// batch. Each row is last-write-wins; the whole batch commits in one
// transaction so a rerun never leaves a partial overwrite.
func (s *gormStore) UpsertPredictions(ctx context.Context, preds []model.FailurePrediction) error {
	if len(preds) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range preds {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "equipment_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"prediction_date", "needs_maintenance_10_days", "failure_probability", "updated_at"}),
			}).Create(&p).Error; err != nil {
				return fmt.Errorf("failed to upsert prediction for %s: %w", p.EquipmentID, err)
			}
		}
		return nil
	})
}

func (s *gormStore) GetFailurePrediction(ctx context.Context, equipmentID string) (model.FailurePrediction, error) {
	var p model.FailurePrediction
	err := s.db.WithContext(ctx).First(&p, "equipment_id = ?", equipmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.FailurePrediction{}, ErrNotFound
	}
	if err != nil {
		return model.FailurePrediction{}, fmt.Errorf("failed to fetch prediction for %s: %w", equipmentID, err)
	}
	return p, nil
}

// UpsertPriorityAssessment writes the three labels as one row so the triple
// can never be observed torn.
func (s *gormStore) UpsertPriorityAssessment(ctx context.Context, a model.PriorityAssessment) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "equipment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"predicted_to_fail", "preventive", "corrective", "replacement", "last_updated"}),
	}).Create(&a).Error
	if err != nil {
		return fmt.Errorf("failed to upsert priority assessment for %s: %w", a.EquipmentID, err)
	}
	return nil
}

func (s *gormStore) GetPriorityAssessment(ctx context.Context, equipmentID string) (model.PriorityAssessment, error) {
	var a model.PriorityAssessment
	err := s.db.WithContext(ctx).First(&a, "equipment_id = ?", equipmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PriorityAssessment{}, ErrNotFound
	}
	if err != nil {
		return model.PriorityAssessment{}, fmt.Errorf("failed to fetch priority assessment for %s: %w", equipmentID, err)
	}
	return a, nil
}

func (s *gormStore) EquipmentMetrics(ctx context.Context, equipmentID string) (EquipmentMetrics, error) {
	eq, err := s.FetchEquipment(ctx, equipmentID)
	if err != nil {
		return EquipmentMetrics{}, err
	}

	type aggRow struct {
		DowntimeHours    float64
		NumFailures      int64
		AvgResponseHours float64
	}
	var agg aggRow
	err = s.db.WithContext(ctx).
		Model(&model.MaintenanceTicket{}).
		Select("COALESCE(SUM(downtime_hours), 0) as downtime_hours, COUNT(maintenance_id) as num_failures, COALESCE(AVG(response_time_hours), 0) as avg_response_hours").
		Where("equipment_id = ?", equipmentID).
		Scan(&agg).Error
	if err != nil {
		return EquipmentMetrics{}, fmt.Errorf("failed to aggregate maintenance history for %s: %w", equipmentID, err)
	}

	metrics := EquipmentMetrics{
		EquipmentID:      equipmentID,
		InstallationDate: eq.InstallationDate,
		DowntimeHours:    agg.DowntimeHours,
		NumFailures:      agg.NumFailures,
		AvgResponseHours: agg.AvgResponseHours,
	}

	pred, err := s.GetFailurePrediction(ctx, equipmentID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return EquipmentMetrics{}, err
	}
	if err == nil {
		metrics.NeedsMaintenance = pred.NeedsMaintenance
	}
	return metrics, nil
}

// MaxTicketNumber returns the highest numeric suffix currently stored under
// the given prefix. found is false when no ticket with the prefix exists.
func (s *gormStore) MaxTicketNumber(ctx context.Context, prefix string) (int, bool, error) {
	type row struct {
		Num int
	}
	var r row
	err := s.db.WithContext(ctx).
		Model(&model.MaintenanceTicket{}).
		Select(fmt.Sprintf("CAST(SUBSTR(maintenance_id, %d) AS INTEGER) as num", len(prefix)+1)).
		Where("maintenance_id LIKE ?", prefix+"%").
		Order("num DESC").
		Limit(1).
		Scan(&r).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to read max ticket number: %w", err)
	}
	if r.Num == 0 {
		// Distinguish "no rows" from a genuine zero suffix.
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.MaintenanceTicket{}).
			Where("maintenance_id LIKE ?", prefix+"%").Count(&count).Error; err != nil {
			return 0, false, fmt.Errorf("failed to count tickets: %w", err)
		}
		if count == 0 {
			return 0, false, nil
		}
	}
	return r.Num, true, nil
}

func (s *gormStore) CreateTicket(ctx context.Context, t *model.MaintenanceTicket) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create ticket %s: %w", t.MaintenanceID, err)
	}
	return nil
}

// isDuplicateKey detects a uniqueness violation across the supported drivers.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func (s *gormStore) GetTicket(ctx context.Context, maintenanceID string) (model.MaintenanceTicket, error) {
	var t model.MaintenanceTicket
	err := s.db.WithContext(ctx).First(&t, "maintenance_id = ?", maintenanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MaintenanceTicket{}, ErrNotFound
	}
	if err != nil {
		return model.MaintenanceTicket{}, fmt.Errorf("failed to fetch ticket %s: %w", maintenanceID, err)
	}
	return t, nil
}

func (s *gormStore) UpdateTicket(ctx context.Context, maintenanceID string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&model.MaintenanceTicket{}).
		Where("maintenance_id = ?", maintenanceID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update ticket %s: %w", maintenanceID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteTicket(ctx context.Context, maintenanceID string) error {
	res := s.db.WithContext(ctx).Delete(&model.MaintenanceTicket{MaintenanceID: maintenanceID})
	if res.Error != nil {
		return fmt.Errorf("failed to delete ticket %s: %w", maintenanceID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) ListTickets(ctx context.Context, status string) ([]model.MaintenanceTicket, error) {
	q := s.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tickets []model.MaintenanceTicket
	if err := q.Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

func (s *gormStore) ListTicketsByEquipment(ctx context.Context, equipmentID string) ([]model.MaintenanceTicket, error) {
	var tickets []model.MaintenanceTicket
	if err := s.db.WithContext(ctx).Where("equipment_id = ?", equipmentID).Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets for %s: %w", equipmentID, err)
	}
	return tickets, nil
}

func (s *gormStore) ListUpcomingTickets(ctx context.Context, equipmentID, fromDate string) ([]model.MaintenanceTicket, error) {
	var tickets []model.MaintenanceTicket
	err := s.db.WithContext(ctx).
		Where("equipment_id = ? AND date >= ? AND status = ?", equipmentID, fromDate, model.StatusScheduled).
		Order("date ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming tickets for %s: %w", equipmentID, err)
	}
	return tickets, nil
}

func (s *gormStore) ListPendingReviews(ctx context.Context) ([]model.MaintenanceTicket, error) {
	var tickets []model.MaintenanceTicket
	err := s.db.WithContext(ctx).
		Where("status = ? AND completion_status = ?", model.StatusCompleted, model.CompletionPending).
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reviews: %w", err)
	}
	return tickets, nil
}

func (s *gormStore) ListScheduledFrom(ctx context.Context, fromDate string) ([]model.MaintenanceTicket, error) {
	var tickets []model.MaintenanceTicket
	err := s.db.WithContext(ctx).
		Where("status = ? AND date >= ?", model.StatusScheduled, fromDate).
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled tickets: %w", err)
	}
	return tickets, nil
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PushSubscription{}, ErrNotFound
	}
	if err != nil {
		return model.PushSubscription{}, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}
