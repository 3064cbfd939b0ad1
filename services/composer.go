package services

import (
	"math/rand"
	"sync"

	"geoquiz/models"
)

// PresentedQuestion is what a player sees. The correct answer and the
// explanation stay hidden until the question is answered.
type PresentedQuestion struct {
	ID          uint                `json:"id"`
	Type        models.QuestionType `json:"type"`
	Text        string              `json:"text"`
	Options     []string            `json:"options"`
	Difficulty  int                 `json:"difficulty"`
	BasePoints  int                 `json:"base_points"`
	TimeLimit   int                 `json:"time_limit"`
	ImageURL    *string             `json:"image_url,omitempty"`
	CountryID   uint                `json:"country_id"`
	CountryName string              `json:"country_name,omitempty"`
	FlagURL     string              `json:"flag_url,omitempty"`
	Index       int                 `json:"index"` // 0-based position in the session
}

// Composer turns stored questions into presented ones.
type Composer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewComposer(rng *rand.Rand) *Composer {
	return &Composer{rng: rng}
}

// Options returns the correct answer and the stored wrong options in
// shuffled order.
func (c *Composer) Options(q *models.Question) []string {
	options := make([]string, 0, len(q.WrongOptions)+1)
	options = append(options, q.CorrectAnswer)
	options = append(options, q.WrongOptions...)

	c.mu.Lock()
	c.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	c.mu.Unlock()
	return options
}

// Compose builds the presented question. country may be nil.
func (c *Composer) Compose(q *models.Question, country *models.Country, index int) *PresentedQuestion {
	pq := &PresentedQuestion{
		ID:         q.ID,
		Type:       q.Type,
		Text:       q.Text,
		Options:    c.Options(q),
		Difficulty: q.Difficulty,
		BasePoints: q.BasePoints,
		TimeLimit:  q.TimeLimit,
		ImageURL:   q.ImageURL,
		CountryID:  q.CountryID,
		Index:      index,
	}
	if country != nil {
		pq.CountryName = country.Name
		pq.FlagURL = country.FlagURL
	}
	return pq
}
