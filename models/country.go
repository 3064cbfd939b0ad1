package models

import (
	"time"
)

// Country is the geographic reference record questions are built from.
type Country struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"type:varchar(3);uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Capital     string    `json:"capital"`
	Continent   Continent `json:"continent" gorm:"type:varchar(32);not null;index"`
	Currency    *string   `json:"currency,omitempty"`
	Language    string    `json:"language"`
	Population  int64     `json:"population"`
	AreaKm2     float64   `json:"area_km2"`
	CallingCode string    `json:"calling_code"`
	FlagURL     string    `json:"flag_url"`
	MapURL      string    `json:"map_url"`
	FunFact     string    `json:"fun_fact"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
