package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"equipment-maintenance-backend/internal/model"
)

// newTestStore opens an isolated in-memory database with the full schema.
func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Equipment{},
		&model.UsageLog{},
		&model.FailurePrediction{},
		&model.PriorityAssessment{},
		&model.MaintenanceTicket{},
		&model.PushSubscription{},
	))
	return NewGormStore(db)
}

// newMockDB creates a sqlmock-backed connection for error-path tests.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func seedEquipment(t *testing.T, s Store, equipmentID string) {
	t.Helper()
	require.NoError(t, s.DB().Create(&model.Equipment{
		EquipmentID:      equipmentID,
		Name:             "Infusion Pump",
		Department:       "ICU",
		InstallationDate: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func TestGormStore_FetchEquipment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEquipment(t, s, "EQP001")

	eq, err := s.FetchEquipment(ctx, "EQP001")
	require.NoError(t, err)
	assert.Equal(t, "Infusion Pump", eq.Name)

	_, err = s.FetchEquipment(ctx, "EQP404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_UsageSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEquipment(t, s, "EQP001")

	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i, l := range []model.UsageLog{
		{UsageHours: 10, AvgCPUTemp: 50, ErrorCount: 1},
		{UsageHours: 14, AvgCPUTemp: 70, ErrorCount: 3},
	} {
		l.EquipmentID = "EQP001"
		l.Timestamp = base.AddDate(0, 0, i)
		require.NoError(t, s.DB().Create(&l).Error)
	}

	sum, err := s.UsageSummary(ctx, "EQP001")
	require.NoError(t, err)
	assert.Equal(t, "EQP001", sum.EquipmentID)
	assert.InDelta(t, 24, sum.UsageHours, 1e-9)
	assert.InDelta(t, 60, sum.AvgCPUTemp, 1e-9)
	assert.InDelta(t, 4, sum.TotalErrors, 1e-9)

	_, err = s.UsageSummary(ctx, "EQP404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_UpsertPredictions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []model.FailurePrediction{
		{EquipmentID: "EQP001", PredictionDate: "2024-04-01", NeedsMaintenance: false, FailureProbability: 0.2},
		{EquipmentID: "EQP002", PredictionDate: "2024-04-01", NeedsMaintenance: true, FailureProbability: 0.7},
	}
	require.NoError(t, s.UpsertPredictions(ctx, first))

	// A rerun overwrites in place rather than accumulating rows.
	second := []model.FailurePrediction{
		{EquipmentID: "EQP001", PredictionDate: "2024-04-02", NeedsMaintenance: true, FailureProbability: 0.55},
	}
	require.NoError(t, s.UpsertPredictions(ctx, second))

	p, err := s.GetFailurePrediction(ctx, "EQP001")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", p.PredictionDate)
	assert.True(t, p.NeedsMaintenance)
	assert.InDelta(t, 0.55, p.FailureProbability, 1e-9)

	var count int64
	require.NoError(t, s.DB().Model(&model.FailurePrediction{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = s.GetFailurePrediction(ctx, "EQP404")
	assert.ErrorIs(t, err, ErrNotFound)

	// An empty batch is a no-op, not an error.
	assert.NoError(t, s.UpsertPredictions(ctx, nil))
}

func TestGormStore_UpsertPriorityAssessment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := model.PriorityAssessment{
		EquipmentID:     "EQP001",
		PredictedToFail: true,
		Preventive:      model.PriorityHigh,
		Corrective:      model.PriorityMedium,
		Replacement:     model.PriorityLow,
		LastUpdated:     time.Now().UTC(),
	}
	require.NoError(t, s.UpsertPriorityAssessment(ctx, a))

	a.Preventive = model.PriorityLow
	require.NoError(t, s.UpsertPriorityAssessment(ctx, a))

	got, err := s.GetPriorityAssessment(ctx, "EQP001")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityLow, got.Preventive)
	assert.Equal(t, model.PriorityMedium, got.Corrective)

	var count int64
	require.NoError(t, s.DB().Model(&model.PriorityAssessment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormStore_MaxTicketNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, found, err := s.MaxTicketNumber(ctx, "MTN")
	require.NoError(t, err)
	assert.False(t, found)

	for _, id := range []string{"MTN3341", "MTN3400", "MTN3355"} {
		require.NoError(t, s.CreateTicket(ctx, &model.MaintenanceTicket{
			MaintenanceID: id,
			EquipmentID:   "EQP001",
			Date:          "2024-05-01",
			Status:        model.StatusScheduled,
		}))
	}

	max, found, err := s.MaxTicketNumber(ctx, "MTN")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3400, max)
}

func TestGormStore_MaxTicketNumber_ZeroSuffix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTicket(ctx, &model.MaintenanceTicket{
		MaintenanceID: "MTN0",
		EquipmentID:   "EQP001",
		Date:          "2024-05-01",
		Status:        model.StatusScheduled,
	}))

	max, found, err := s.MaxTicketNumber(ctx, "MTN")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0, max)
}

func TestGormStore_CreateTicket_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := model.MaintenanceTicket{
		MaintenanceID: "MTN3341",
		EquipmentID:   "EQP001",
		Date:          "2024-05-01",
		Status:        model.StatusScheduled,
	}
	require.NoError(t, s.CreateTicket(ctx, &ticket))

	dup := ticket
	err := s.CreateTicket(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestGormStore_UpdateAndDeleteTicket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTicket(ctx, &model.MaintenanceTicket{
		MaintenanceID: "MTN3341",
		EquipmentID:   "EQP001",
		Date:          "2024-05-01",
		Status:        model.StatusScheduled,
	}))

	require.NoError(t, s.UpdateTicket(ctx, "MTN3341", map[string]any{
		"status":         model.StatusCompleted,
		"downtime_hours": 2.5,
	}))
	got, err := s.GetTicket(ctx, "MTN3341")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.InDelta(t, 2.5, got.DowntimeHours, 1e-9)

	assert.ErrorIs(t, s.UpdateTicket(ctx, "MTN9999", map[string]any{"status": model.StatusCompleted}), ErrNotFound)

	require.NoError(t, s.DeleteTicket(ctx, "MTN3341"))
	_, err = s.GetTicket(ctx, "MTN3341")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteTicket(ctx, "MTN3341"), ErrNotFound)
}

func TestGormStore_TicketListings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tickets := []model.MaintenanceTicket{
		{MaintenanceID: "MTN3341", EquipmentID: "EQP001", Date: "2024-05-10", Status: model.StatusScheduled},
		{MaintenanceID: "MTN3342", EquipmentID: "EQP001", Date: "2024-04-01", Status: model.StatusCompleted, CompletionStatus: model.CompletionPending},
		{MaintenanceID: "MTN3343", EquipmentID: "EQP002", Date: "2024-05-20", Status: model.StatusScheduled},
		{MaintenanceID: "MTN3344", EquipmentID: "EQP001", Date: "2024-05-05", Status: model.StatusScheduled},
	}
	for i := range tickets {
		require.NoError(t, s.CreateTicket(ctx, &tickets[i]))
	}

	all, err := s.ListTickets(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	scheduled, err := s.ListTickets(ctx, model.StatusScheduled)
	require.NoError(t, err)
	assert.Len(t, scheduled, 3)

	byEquipment, err := s.ListTicketsByEquipment(ctx, "EQP001")
	require.NoError(t, err)
	assert.Len(t, byEquipment, 3)

	// Upcoming is scheduled-only, from the cutoff, in date order.
	upcoming, err := s.ListUpcomingTickets(ctx, "EQP001", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "MTN3344", upcoming[0].MaintenanceID)
	assert.Equal(t, "MTN3341", upcoming[1].MaintenanceID)

	reviews, err := s.ListPendingReviews(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "MTN3342", reviews[0].MaintenanceID)

	fresh, err := s.ListScheduledFrom(ctx, "2024-05-15")
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "MTN3343", fresh[0].MaintenanceID)
}

func TestGormStore_EquipmentMetrics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEquipment(t, s, "EQP001")

	for _, tk := range []model.MaintenanceTicket{
		{MaintenanceID: "MTN3341", EquipmentID: "EQP001", Date: "2024-03-01", Status: model.StatusCompleted, DowntimeHours: 4, ResponseTimeHours: 2},
		{MaintenanceID: "MTN3342", EquipmentID: "EQP001", Date: "2024-04-01", Status: model.StatusCompleted, DowntimeHours: 6, ResponseTimeHours: 4},
	} {
		tk := tk
		require.NoError(t, s.CreateTicket(ctx, &tk))
	}
	require.NoError(t, s.UpsertPredictions(ctx, []model.FailurePrediction{
		{EquipmentID: "EQP001", PredictionDate: "2024-04-02", NeedsMaintenance: true, FailureProbability: 0.6},
	}))

	m, err := s.EquipmentMetrics(ctx, "EQP001")
	require.NoError(t, err)
	assert.Equal(t, "EQP001", m.EquipmentID)
	assert.InDelta(t, 10, m.DowntimeHours, 1e-9)
	assert.Equal(t, int64(2), m.NumFailures)
	assert.InDelta(t, 3, m.AvgResponseHours, 1e-9)
	assert.True(t, m.NeedsMaintenance)

	_, err = s.EquipmentMetrics(ctx, "EQP404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_EquipmentMetrics_NoHistory(t *testing.T) {
	s := newTestStore(t)
	seedEquipment(t, s, "EQP002")

	m, err := s.EquipmentMetrics(context.Background(), "EQP002")
	require.NoError(t, err)
	assert.Zero(t, m.DowntimeHours)
	assert.Zero(t, m.NumFailures)
	assert.False(t, m.NeedsMaintenance)
}

func TestGormStore_Subscriptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := model.PushSubscription{Endpoint: "https://push.example/abc", P256DH: "key1", Auth: "auth1"}
	require.NoError(t, s.UpsertSubscription(ctx, &sub))

	// Re-registering the same endpoint rotates the keys in place.
	rotated := model.PushSubscription{Endpoint: "https://push.example/abc", P256DH: "key2", Auth: "auth2"}
	require.NoError(t, s.UpsertSubscription(ctx, &rotated))

	got, err := s.GetSubscription(ctx, "https://push.example/abc")
	require.NoError(t, err)
	assert.Equal(t, "key2", got.P256DH)

	subs, err := s.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, s.DeleteSubscription(ctx, "https://push.example/abc"))
	_, err = s.GetSubscription(ctx, "https://push.example/abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_FetchAllUsageLogs_QueryError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "usage_logs"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := s.FetchAllUsageLogs(context.Background())
	assert.ErrorContains(t, err, "failed to fetch usage logs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetTicket_QueryError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "maintenance_tickets"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetTicket(context.Background(), "MTN3341")
	assert.ErrorContains(t, err, "failed to fetch ticket MTN3341")
	assert.NoError(t, mock.ExpectationsWereMet())
}
