package models

import "time"

// AppSettingsID is the primary key of the singleton settings row.
const AppSettingsID uint = 1

// AppSettings stores institute-wide settings such as the monthly fee.
type AppSettings struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MonthlyFee int       `gorm:"not null" json:"monthly_fee"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
