package services

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"geoquiz/models"
)

// MaxDistractors is the number of wrong options authored per question.
const MaxDistractors = 3

// CapitalDistractors picks other capitals, same continent first.
func CapitalDistractors(target models.Country, peers []models.Country, rng *rand.Rand) []string {
	return pickByContinent(target, peers, rng, target.Capital, func(c models.Country) string {
		return c.Capital
	})
}

// CountryNameDistractors picks other country names, same continent first.
func CountryNameDistractors(target models.Country, peers []models.Country, rng *rand.Rand) []string {
	return pickByContinent(target, peers, rng, target.Name, func(c models.Country) string {
		return c.Name
	})
}

// CurrencyDistractors picks currencies different from the target's. Peers
// without a currency are skipped, as are targets without one.
func CurrencyDistractors(target models.Country, peers []models.Country, rng *rand.Rand) []string {
	if target.Currency == nil {
		return nil
	}
	return pickByContinent(target, peers, rng, *target.Currency, func(c models.Country) string {
		if c.Currency == nil {
			return ""
		}
		return *c.Currency
	})
}

func LanguageDistractors(target models.Country, peers []models.Country, rng *rand.Rand) []string {
	return pickByContinent(target, peers, rng, target.Language, func(c models.Country) string {
		return c.Language
	})
}

func CallingCodeDistractors(target models.Country, peers []models.Country, rng *rand.Rand) []string {
	return pickByContinent(target, peers, rng, target.CallingCode, func(c models.Country) string {
		return c.CallingCode
	})
}

// PopulationDistractors picks other countries' populations in the same
// rounded format as FormatPopulation.
func PopulationDistractors(target models.Country, peers []models.Country, rng *rand.Rand) []string {
	if target.Population <= 0 {
		return nil
	}
	return pickByContinent(target, peers, rng, FormatPopulation(target.Population), func(c models.Country) string {
		if c.Population <= 0 {
			return ""
		}
		return FormatPopulation(c.Population)
	})
}

func AreaDistractors(target models.Country, peers []models.Country, rng *rand.Rand) []string {
	if target.AreaKm2 <= 0 {
		return nil
	}
	return pickByContinent(target, peers, rng, FormatArea(target.AreaKm2), func(c models.Country) string {
		if c.AreaKm2 <= 0 {
			return ""
		}
		return FormatArea(c.AreaKm2)
	})
}

// FormatPopulation renders n as "1.41 billion", "68 million" or
// "930 thousand".
func FormatPopulation(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.2f billion", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.0f million", float64(n)/1e6)
	default:
		return fmt.Sprintf("%.0f thousand", float64(n)/1e3)
	}
}

// FormatArea renders an area as whole square kilometres with thousands
// separators, e.g. "551,695 km²".
func FormatArea(km2 float64) string {
	digits := strconv.FormatInt(int64(math.Round(km2)), 10)
	for i := len(digits) - 3; i > 0; i -= 3 {
		digits = digits[:i] + "," + digits[i:]
	}
	return digits + " km²"
}

// ContinentDistractors picks from the canonical continent list minus the
// correct one.
func ContinentDistractors(correct models.Continent, rng *rand.Rand) []string {
	others := make([]string, 0, len(models.Continents))
	for _, c := range models.Continents {
		if c != correct {
			others = append(others, string(c))
		}
	}
	return pickDistinct(string(correct), others, nil, rng)
}

func pickByContinent(target models.Country, peers []models.Country, rng *rand.Rand, correct string, value func(models.Country) string) []string {
	var near, far []string
	for _, p := range peers {
		if p.Code == target.Code {
			continue
		}
		v := value(p)
		if p.Continent == target.Continent {
			near = append(near, v)
		} else {
			far = append(far, v)
		}
	}
	return pickDistinct(correct, near, far, rng)
}

// pickDistinct draws up to MaxDistractors values from preferred, then from
// fallback, skipping blanks, duplicates and anything equal to correct.
func pickDistinct(correct string, preferred, fallback []string, rng *rand.Rand) []string {
	seen := map[string]struct{}{strings.ToLower(strings.TrimSpace(correct)): {}}
	picked := make([]string, 0, MaxDistractors)

	for _, pool := range [][]string{preferred, fallback} {
		candidates := append([]string(nil), pool...)
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, v := range candidates {
			if len(picked) == MaxDistractors {
				return picked
			}
			key := strings.ToLower(strings.TrimSpace(v))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			picked = append(picked, strings.TrimSpace(v))
		}
	}
	return picked
}
