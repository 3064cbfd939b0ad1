// Package seed loads the country catalog and generates the question bank
// from it.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"strings"

	"geoquiz/models"
	"geoquiz/services"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed countries.yaml
var defaultCatalog []byte

type countryFile struct {
	Countries []countryEntry `yaml:"countries"`
}

type countryEntry struct {
	Code        string  `yaml:"code"`
	Name        string  `yaml:"name"`
	Capital     string  `yaml:"capital"`
	Continent   string  `yaml:"continent"`
	Currency    string  `yaml:"currency"`
	Language    string  `yaml:"language"`
	Population  int64   `yaml:"population"`
	AreaKm2     float64 `yaml:"area_km2"`
	CallingCode string  `yaml:"calling_code"`
	FlagURL     string  `yaml:"flag_url"`
	MapURL      string  `yaml:"map_url"`
	FunFact     string  `yaml:"fun_fact"`
}

// DefaultCountries parses the catalog bundled with the binary.
func DefaultCountries() ([]models.Country, error) {
	return ParseCountries(defaultCatalog)
}

func LoadCountries(r io.Reader) ([]models.Country, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCountries(raw)
}

// ParseCountries decodes and validates a YAML country catalog.
func ParseCountries(raw []byte) ([]models.Country, error) {
	var file countryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Countries))
	countries := make([]models.Country, 0, len(file.Countries))
	for i, e := range file.Countries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		if code == "" || strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("country #%d: code and name are required", i+1)
		}
		if seen[code] {
			return nil, fmt.Errorf("country %s: duplicate code", code)
		}
		seen[code] = true

		continent, ok := models.ParseContinent(e.Continent)
		if !ok {
			return nil, fmt.Errorf("country %s: unknown continent %q", code, e.Continent)
		}

		c := models.Country{
			Code:        code,
			Name:        strings.TrimSpace(e.Name),
			Capital:     strings.TrimSpace(e.Capital),
			Continent:   continent,
			Language:    strings.TrimSpace(e.Language),
			Population:  e.Population,
			AreaKm2:     e.AreaKm2,
			CallingCode: strings.TrimSpace(e.CallingCode),
			FlagURL:     e.FlagURL,
			MapURL:      e.MapURL,
			FunFact:     strings.TrimSpace(e.FunFact),
		}
		if cur := strings.TrimSpace(e.Currency); cur != "" {
			c.Currency = &cur
		}
		countries = append(countries, c)
	}
	return countries, nil
}

type template struct {
	kind       models.QuestionType
	difficulty int
	build      func(c models.Country, peers []models.Country, rng *rand.Rand) (text, answer string, wrong []string, image *string, ok bool)
}

var templates = []template{
	{models.QuestionFlag, 1, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.FlagURL == "" {
			return "", "", nil, nil, false
		}
		flag := c.FlagURL
		return "Which country does this flag belong to?", c.Name, services.CountryNameDistractors(c, peers, rng), &flag, true
	}},
	{models.QuestionContinent, 1, func(c models.Country, _ []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		return fmt.Sprintf("On which continent is %s?", c.Name), string(c.Continent), services.ContinentDistractors(c.Continent, rng), nil, true
	}},
	{models.QuestionCapital, 2, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.Capital == "" {
			return "", "", nil, nil, false
		}
		return fmt.Sprintf("What is the capital of %s?", c.Name), c.Capital, services.CapitalDistractors(c, peers, rng), nil, true
	}},
	{models.QuestionMapLocation, 2, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.MapURL == "" {
			return "", "", nil, nil, false
		}
		m := c.MapURL
		return "Which country is highlighted on this map?", c.Name, services.CountryNameDistractors(c, peers, rng), &m, true
	}},
	{models.QuestionCurrency, 3, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.Currency == nil {
			return "", "", nil, nil, false
		}
		return fmt.Sprintf("What is the currency of %s?", c.Name), *c.Currency, services.CurrencyDistractors(c, peers, rng), nil, true
	}},
	{models.QuestionLanguage, 3, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.Language == "" {
			return "", "", nil, nil, false
		}
		return fmt.Sprintf("What is the most widely spoken language in %s?", c.Name), c.Language, services.LanguageDistractors(c, peers, rng), nil, true
	}},
	{models.QuestionFunFact, 3, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.FunFact == "" {
			return "", "", nil, nil, false
		}
		return fmt.Sprintf("Which country is this about? %s", c.FunFact), c.Name, services.CountryNameDistractors(c, peers, rng), nil, true
	}},
	{models.QuestionCallingCode, 4, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.CallingCode == "" {
			return "", "", nil, nil, false
		}
		return fmt.Sprintf("What is the international calling code of %s?", c.Name), c.CallingCode, services.CallingCodeDistractors(c, peers, rng), nil, true
	}},
	{models.QuestionPopulation, 4, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.Population <= 0 {
			return "", "", nil, nil, false
		}
		return fmt.Sprintf("About how many people live in %s?", c.Name), services.FormatPopulation(c.Population), services.PopulationDistractors(c, peers, rng), nil, true
	}},
	{models.QuestionArea, 5, func(c models.Country, peers []models.Country, rng *rand.Rand) (string, string, []string, *string, bool) {
		if c.AreaKm2 <= 0 {
			return "", "", nil, nil, false
		}
		return fmt.Sprintf("What is the area of %s?", c.Name), services.FormatArea(c.AreaKm2), services.AreaDistractors(c, peers, rng), nil, true
	}},
}

func basePointsFor(difficulty int) int {
	return 10 + 5*(difficulty-1)
}

// BuildQuestions generates one question per template and country. Countries
// must already carry their database ids. A question may carry fewer than
// MaxDistractors wrong options; one without any is skipped.
func BuildQuestions(countries []models.Country, rng *rand.Rand) []models.Question {
	var questions []models.Question
	for _, c := range countries {
		for _, t := range templates {
			text, answer, wrong, image, ok := t.build(c, countries, rng)
			if !ok || len(wrong) == 0 {
				continue
			}
			questions = append(questions, models.Question{
				Type:          t.kind,
				CountryID:     c.ID,
				Text:          text,
				CorrectAnswer: answer,
				WrongOptions:  datatypes.JSONSlice[string](wrong),
				Difficulty:    t.difficulty,
				BasePoints:    basePointsFor(t.difficulty),
				TimeLimit:     15,
				ImageURL:      image,
			})
		}
	}
	return questions
}

type Result struct {
	Countries int
	Questions int
}

// Run upserts countries by code and adds the questions that do not exist
// yet. Existing questions are never rewritten since answers reference them.
func Run(ctx context.Context, db *gorm.DB, countries []models.Country, rng *rand.Rand, log *zap.Logger) (Result, error) {
	var result Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(countries) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"name", "capital", "continent", "currency", "language", "population",
					"area_km2", "calling_code", "flag_url", "map_url", "fun_fact", "updated_at",
				}),
			}).Create(&countries).Error; err != nil {
				return fmt.Errorf("upsert countries: %w", err)
			}
		}

		var stored []models.Country
		if err := tx.Order("id").Find(&stored).Error; err != nil {
			return fmt.Errorf("load countries: %w", err)
		}
		result.Countries = len(stored)

		type key struct {
			country uint
			kind    models.QuestionType
		}
		var existing []models.Question
		if err := tx.Select("country_id", "type").Find(&existing).Error; err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		have := make(map[key]bool, len(existing))
		for _, q := range existing {
			have[key{q.CountryID, q.Type}] = true
		}

		var fresh []models.Question
		for _, q := range BuildQuestions(stored, rng) {
			if !have[key{q.CountryID, q.Type}] {
				fresh = append(fresh, q)
			}
		}
		if len(fresh) > 0 {
			if err := tx.CreateInBatches(fresh, 100).Error; err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		result.Questions = len(fresh)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("catalog seeded", zap.Int("countries", result.Countries), zap.Int("new_questions", result.Questions))
	return result, nil
}
