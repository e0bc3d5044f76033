package model

import (
	"encoding/json"
	"time"
)

type BackendSurvey struct {
	ID             string          `json:"id,omitempty"`
	Version        int             `json:"version,omitempty"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Settings       json.RawMessage `json:"settings,omitempty"`
	Theme          json.RawMessage `json:"theme,omitempty"`
	IsPublic       bool            `json:"isPublic"`
	AllowAnonymous bool            `json:"allowAnonymous"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	Status         string          `json:"status,omitempty"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time      `json:"updatedAt,omitempty"`
	Pages          []BackendPage   `json:"pages"`
}

type BackendPage struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name"`
	OrderIndex int               `json:"orderIndex"`
	Questions  []BackendQuestion `json:"questions"`
}

type BackendQuestion struct {
	ID               string          `json:"id,omitempty"`
	Name             string          `json:"name"`
	Type             BackendType     `json:"type"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Placeholder      string          `json:"placeholder"`
	Required         bool            `json:"required"`
	OrderIndex       int             `json:"orderIndex"`
	Validation       json.RawMessage `json:"validation,omitempty"`
	ConditionalLogic json.RawMessage `json:"conditionalLogic,omitempty"`
	Styling          json.RawMessage `json:"styling,omitempty"`
	Options          []Option        `json:"options"`
}

type SurveySummary struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Thumbnail      string     `json:"thumbnail,omitempty"`
	Status         string     `json:"status"`
	Type           string     `json:"type,omitempty"`
	ResponseCount  int        `json:"responseCount"`
	CompletionRate float64    `json:"completionRate"`
	IsDuplicated   bool       `json:"isDuplicated,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

type ResponseSubmission struct {
	SessionID  string   `json:"sessionId"`
	TimeSpent  int      `json:"timeSpent"`
	DeviceInfo string   `json:"deviceInfo,omitempty"`
	Answers    []Answer `json:"answers"`
}

type Answer struct {
	QuestionID string `json:"questionId"`
	Answer     any    `json:"answer"`
}

type Analytics struct {
	SurveyID         string              `json:"surveyId"`
	Responses        int                 `json:"responses"`
	AverageTimeSpent float64             `json:"averageTimeSpent"`
	Questions        []QuestionAnalytics `json:"questions"`
}

type QuestionAnalytics struct {
	QuestionID   string         `json:"questionId"`
	Title        string         `json:"title"`
	Answered     int            `json:"answered"`
	Distribution map[string]int `json:"distribution,omitempty"`
}
