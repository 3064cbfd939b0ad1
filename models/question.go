package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionCapital     QuestionType = "CAPITAL"
	QuestionFlag        QuestionType = "FLAG"
	QuestionCurrency    QuestionType = "CURRENCY"
	QuestionContinent   QuestionType = "CONTINENT"
	QuestionLanguage    QuestionType = "LANGUAGE"
	QuestionPopulation  QuestionType = "POPULATION"
	QuestionArea        QuestionType = "AREA"
	QuestionFunFact     QuestionType = "FUN_FACT"
	QuestionCallingCode QuestionType = "CALLING_CODE"
	QuestionMapLocation QuestionType = "MAP_LOCATION"
)

var QuestionTypes = []QuestionType{
	QuestionCapital, QuestionFlag, QuestionCurrency, QuestionContinent, QuestionLanguage,
	QuestionPopulation, QuestionArea, QuestionFunFact, QuestionCallingCode, QuestionMapLocation,
}

func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Question is immutable reference data written by the seeder.
type Question struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	Type          QuestionType                `json:"type" gorm:"type:varchar(16);not null;index"`
	CountryID     uint                        `json:"country_id" gorm:"not null;index"`
	Text          string                      `json:"text" gorm:"not null"`
	CorrectAnswer string                      `json:"-" gorm:"not null"`
	WrongOptions  datatypes.JSONSlice[string] `json:"-" gorm:"not null"`
	Difficulty    int                         `json:"difficulty" gorm:"not null;default:1;index"`
	BasePoints    int                         `json:"base_points" gorm:"not null;default:10"`
	TimeLimit     int                         `json:"time_limit" gorm:"not null;default:15"` // seconds
	ImageURL      *string                     `json:"image_url,omitempty"`
	Explanation   *string                     `json:"-"`
	CreatedAt     time.Time                   `json:"created_at"`
}
