package model

import "time"

// Ticket status values. UpdateProgress validates against this closed set.
const (
	StatusScheduled  = "Scheduled"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Completion review outcomes.
const (
	CompletionPending          = "Pending"
	CompletionConfirmed        = "Confirmed"
	CompletionApproved         = "Approved"
	CompletionRejected         = "Rejected"
	CompletionRequiresFollowUp = "Requires Follow-up"
)

// MaintenanceTicket is one maintenance work record tracked through the
// schedule/complete/review lifecycle.
type MaintenanceTicket struct {
	MaintenanceID     string    `gorm:"primaryKey;size:16" json:"maintenance_id"`
	EquipmentID       string    `gorm:"index;size:32;not null" json:"equipment_id"`
	Date              string    `gorm:"size:16;not null" json:"date"`
	MaintenanceType   string    `gorm:"size:32;not null" json:"maintenance_type"`
	Status            string    `gorm:"size:32;not null" json:"status"`
	CompletionStatus  string    `gorm:"size:32" json:"completion_status"`
	DowntimeHours     float64   `json:"downtime_hours"`
	Cost              float64   `gorm:"column:cost_inr" json:"cost_inr"`
	IssueDescription  string    `gorm:"size:1024" json:"issue_description"`
	PartsReplaced     string    `gorm:"size:256" json:"parts_replaced"`
	Vendor            string    `gorm:"size:128" json:"vendor"`
	TechnicianID      string    `gorm:"size:32" json:"technician_id"`
	ServiceRating     int       `json:"service_rating"`
	ResponseTimeHours float64   `json:"response_time_hours"`
	WarrantyCovered   string    `gorm:"size:8" json:"warranty_covered"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}
