package model

import "time"

// Object is a free-form JSON object: survey settings and theme, question
// validation and styling.
type Object map[string]any

type Survey struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CurrentPageID  string     `json:"currentPageId"`
	Settings       Object     `json:"settings,omitempty"`
	Theme          Object     `json:"theme,omitempty"`
	IsPublic       bool       `json:"isPublic,omitempty"`
	AllowAnonymous bool       `json:"allowAnonymous,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	Status         string     `json:"status,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
	Pages          []Page     `json:"pages"`
}

type Page struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	OrderIndex int        `json:"orderIndex"`
	Questions  []Question `json:"questions"`
}

type Question struct {
	ID               string           `json:"id"`
	Name             string           `json:"name,omitempty"`
	Type             QuestionType     `json:"type"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Placeholder      string           `json:"placeholder"`
	Required         bool             `json:"required"`
	OrderIndex       int              `json:"orderIndex"`
	Options          []Option         `json:"options"`
	Validation       Object           `json:"validation,omitempty"`
	ConditionalLogic ConditionalLogic `json:"conditionalLogic"`
	Styling          Object           `json:"styling,omitempty"`

	// presentation only, derived on load
	Icon  string        `json:"icon,omitempty"`
	Logic *LogicSummary `json:"logic,omitempty"`
}

type LogicSummary struct {
	Enabled bool `json:"enabled"`
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Condition string

const (
	Equals      Condition = "equals"
	NotEquals   Condition = "not_equals"
	Contains    Condition = "contains"
	NotContains Condition = "not_contains"
	GreaterThan Condition = "greater_than"
	LessThan    Condition = "less_than"
)

type ConditionalLogic struct {
	Enabled   bool      `json:"enabled"`
	DependsOn string    `json:"dependsOn"`
	Condition Condition `json:"condition"`
	Value     any       `json:"value"`
}

// Answers maps a question id to the respondent's answer: a string, a list of
// strings, a number, or a row map for matrix questions.
type Answers map[string]any

// Page returns the page with the given id.
func (s *Survey) Page(id string) (*Page, int) {
	for i := range s.Pages {
		if s.Pages[i].ID == id {
			return &s.Pages[i], i
		}
	}
	return nil, -1
}

// CurrentPage returns the page referenced by CurrentPageID.
func (s *Survey) CurrentPage() (*Page, int) {
	return s.Page(s.CurrentPageID)
}

// Question looks a question up by id across all pages.
func (s *Survey) Question(id string) *Question {
	for i := range s.Pages {
		if q, _ := s.Pages[i].Question(id); q != nil {
			return q
		}
	}
	return nil
}

func (p *Page) Question(id string) (*Question, int) {
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return &p.Questions[i], i
		}
	}
	return nil, -1
}

// Reindex rewrites OrderIndex so that it matches slice position.
func (p *Page) Reindex() {
	for i := range p.Questions {
		p.Questions[i].OrderIndex = i
	}
}

func (s *Survey) ReindexPages() {
	for i := range s.Pages {
		s.Pages[i].OrderIndex = i
	}
}
