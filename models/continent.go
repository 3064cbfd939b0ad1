package models

import "strings"

// Continent names are stored without accents; this list is the only source
// of continent names for both seeding and distractors.
type Continent string

const (
	Africa   Continent = "Africa"
	Americas Continent = "Americas"
	Asia     Continent = "Asia"
	Europe   Continent = "Europe"
	Oceania  Continent = "Oceania"
)

var Continents = []Continent{Africa, Americas, Asia, Europe, Oceania}

// ParseContinent matches a continent name case-insensitively.
func ParseContinent(s string) (Continent, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Continents {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}
