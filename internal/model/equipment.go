package model

import "time"

// Equipment represents a registered medical device.
type Equipment struct {
	EquipmentID      string    `gorm:"primaryKey;size:32" json:"equipment_id"`
	Name             string    `gorm:"size:256" json:"name"`
	Department       string    `gorm:"size:128" json:"department"`
	InstallationDate time.Time `gorm:"not null" json:"installation_date"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}
