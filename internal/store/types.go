package store

import "time"

// EquipmentMetrics is the aggregated maintenance history for one device,
// used as input to the priority classifiers.
type EquipmentMetrics struct {
	EquipmentID      string
	InstallationDate time.Time
	DowntimeHours    float64
	NumFailures      int64
	AvgResponseHours float64
	NeedsMaintenance bool
}

// UsageSummary is the cumulative usage picture for one device.
type UsageSummary struct {
	EquipmentID string  `json:"equipment_id"`
	UsageHours  float64 `json:"usage_hours"`
	AvgCPUTemp  float64 `json:"avg_cpu_temp"`
	TotalErrors float64 `json:"total_errors"`
}
