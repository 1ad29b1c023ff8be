package model

import "time"

// FailurePrediction holds the latest ensemble verdict for one device.
// One row per equipment_id; re-running the batch overwrites it.
type FailurePrediction struct {
	EquipmentID        string    `gorm:"primaryKey;size:32" json:"equipment_id"`
	PredictionDate     string    `gorm:"size:16;not null" json:"prediction_date"`
	NeedsMaintenance   bool      `gorm:"column:needs_maintenance_10_days;not null" json:"needs_maintenance_10_days"`
	FailureProbability float64   `gorm:"not null" json:"failure_probability"`
	UpdatedAt          time.Time `json:"-"`
}

// PriorityLevel is a categorical maintenance severity.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "Low"
	PriorityMedium PriorityLevel = "Medium"
	PriorityHigh   PriorityLevel = "High"
)

// PriorityAssessment holds the latest per-type priority labels for one device.
type PriorityAssessment struct {
	EquipmentID     string        `gorm:"primaryKey;size:32" json:"equipment_id"`
	PredictedToFail bool          `gorm:"not null" json:"predicted_to_fail"`
	Preventive      PriorityLevel `gorm:"size:16;not null" json:"preventive"`
	Corrective      PriorityLevel `gorm:"size:16;not null" json:"corrective"`
	Replacement     PriorityLevel `gorm:"size:16;not null" json:"replacement"`
	LastUpdated     time.Time     `gorm:"not null" json:"last_updated"`
}
