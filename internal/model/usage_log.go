package model

import "time"

// UsageLog is one append-only usage/sensor sample for a device.
type UsageLog struct {
	ID             int64     `gorm:"autoIncrement;primaryKey" json:"-"`
	EquipmentID    string    `gorm:"index;size:32;not null" json:"equipment_id"`
	Timestamp      time.Time `gorm:"index;not null" json:"timestamp"`
	UsageHours     float64   `gorm:"not null" json:"usage_hours"`
	PatientsServed float64   `gorm:"not null" json:"patients_served"`
	WorkloadLevel  float64   `gorm:"not null" json:"workload_level"`
	AvgCPUTemp     float64   `gorm:"column:avg_cpu_temp;not null" json:"avg_cpu_temp"`
	ErrorCount     float64   `gorm:"not null" json:"error_count"`
}

// Features returns the log's feature vector in the fixed model order:
// usage_hours, patients_served, workload_level, avg_cpu_temp, error_count.
func (l UsageLog) Features() []float64 {
	return []float64{l.UsageHours, l.PatientsServed, l.WorkloadLevel, l.AvgCPUTemp, l.ErrorCount}
}
