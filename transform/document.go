package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

type wireSurvey struct {
	ID             json.RawMessage `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	CurrentPageID  json.RawMessage `json:"currentPageId"`
	Settings       json.RawMessage `json:"settings"`
	Theme          json.RawMessage `json:"theme"`
	IsPublic       bool            `json:"isPublic"`
	AllowAnonymous bool            `json:"allowAnonymous"`
	ExpiresAt      *time.Time      `json:"expiresAt"`
	Status         string          `json:"status"`
	CreatedAt      *time.Time      `json:"createdAt"`
	UpdatedAt      *time.Time      `json:"updatedAt"`
	Pages          []wirePage      `json:"pages"`
}

type wirePage struct {
	ID         json.RawMessage `json:"id"`
	Name       string          `json:"name"`
	OrderIndex int             `json:"orderIndex"`
	Questions  []wireQuestion  `json:"questions"`
}

type wireQuestion struct {
	ID               json.RawMessage `json:"id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Placeholder      string          `json:"placeholder"`
	Required         bool            `json:"required"`
	OrderIndex       int             `json:"orderIndex"`
	Options          []wireOption    `json:"options"`
	Validation       json.RawMessage `json:"validation"`
	ConditionalLogic json.RawMessage `json:"conditionalLogic"`
	Styling          json.RawMessage `json:"styling"`
	Icon             string          `json:"icon"`
}

type wireOption struct {
	ID    json.RawMessage `json:"id"`
	Label string          `json:"label"`
	Text  string          `json:"text"`
	Value any             `json:"value"`
}

// ids may have been written as numbers by older exports
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return ""
	}
	var s string
	if gojson.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// DecodeDocument reads a builder document from JSON as written by an export
// or the auto-save. The top-level id, title and pages keys are required;
// everything else is taken verbatim, with string-encoded object fields
// parsed the same way as ParseJSONField.
func DecodeDocument(data []byte) (model.Survey, Warnings, error) {
	var keys map[string]json.RawMessage
	if err := gojson.Unmarshal(data, &keys); err != nil {
		return model.Survey{}, nil, errors.Wrapf(model.ErrInvalidDocument, "parse: %v", err)
	}
	for _, key := range []string{"id", "title", "pages"} {
		v, ok := keys[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), null) {
			return model.Survey{}, nil, errors.Wrapf(model.ErrInvalidDocument, "missing %q", key)
		}
	}

	var w wireSurvey
	if err := gojson.Unmarshal(data, &w); err != nil {
		return model.Survey{}, nil, errors.Wrapf(model.ErrInvalidDocument, "decode: %v", err)
	}
	if len(w.Pages) == 0 {
		return model.Survey{}, nil, errors.Wrap(model.ErrInvalidDocument, "no pages")
	}

	var warnings Warnings
	warn := func(err error) {
		if err != nil {
			warnings = append(warnings, err)
		}
	}

	doc := model.Survey{
		ID:             rawID(w.ID),
		Title:          w.Title,
		Description:    w.Description,
		CurrentPageID:  rawID(w.CurrentPageID),
		IsPublic:       w.IsPublic,
		AllowAnonymous: w.AllowAnonymous,
		ExpiresAt:      w.ExpiresAt,
		Status:         w.Status,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		Pages:          make([]model.Page, 0, len(w.Pages)),
	}
	var err error
	if len(w.Settings) > 0 {
		doc.Settings, err = ParseJSONField("settings", w.Settings)
		warn(err)
	}
	if len(w.Theme) > 0 {
		doc.Theme, err = ParseJSONField("theme", w.Theme)
		warn(err)
	}

	for _, wp := range w.Pages {
		page := model.Page{
			ID:         rawID(wp.ID),
			Name:       wp.Name,
			OrderIndex: wp.OrderIndex,
			Questions:  make([]model.Question, 0, len(wp.Questions)),
		}
		for _, wq := range wp.Questions {
			qid := rawID(wq.ID)
			field := func(name string) string {
				return fmt.Sprintf("pages[%s].questions[%s].%s", page.ID, qid, name)
			}
			q := model.Question{
				ID:          qid,
				Name:        wq.Name,
				Type:        model.QuestionType(wq.Type),
				Title:       wq.Title,
				Description: wq.Description,
				Placeholder: wq.Placeholder,
				Required:    wq.Required,
				OrderIndex:  wq.OrderIndex,
				Options:     make([]model.Option, 0, len(wq.Options)),
				Icon:        wq.Icon,
			}
			for _, wo := range wq.Options {
				label := wo.Label
				if label == "" {
					label = wo.Text
				}
				q.Options = append(q.Options, model.Option{
					ID:    rawID(wo.ID),
					Label: label,
					Value: cast.ToString(wo.Value),
				})
			}
			q.Validation, err = ParseJSONField(field("validation"), wq.Validation)
			warn(err)
			q.ConditionalLogic, err = ParseConditionalLogic(field("conditionalLogic"), wq.ConditionalLogic)
			warn(err)
			q.Styling, err = ParseJSONField(field("styling"), wq.Styling)
			warn(err)

			page.Questions = append(page.Questions, q)
		}
		doc.Pages = append(doc.Pages, page)
	}

	if p, _ := doc.CurrentPage(); p == nil {
		doc.CurrentPageID = doc.Pages[0].ID
	}
	return doc, warnings, nil
}

// Metadata describes the respondent session a submission comes from.
type Metadata struct {
	SessionID  string
	TimeSpent  time.Duration
	DeviceInfo string
}

// ResponsePayload assembles the submission body, answers ordered by
// question id.
func ResponsePayload(answers model.Answers, meta Metadata) model.ResponseSubmission {
	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := model.ResponseSubmission{
		SessionID:  meta.SessionID,
		TimeSpent:  int(meta.TimeSpent / time.Second),
		DeviceInfo: meta.DeviceInfo,
		Answers:    make([]model.Answer, len(ids)),
	}
	for i, id := range ids {
		out.Answers[i] = model.Answer{QuestionID: id, Answer: answers[id]}
	}
	return out
}

const defaultThumbnail = "/assets/images/no_image.png"

// SurveyList fills in the dashboard defaults of survey summaries.
func SurveyList(surveys []model.SurveySummary) []model.SurveySummary {
	out := make([]model.SurveySummary, len(surveys))
	for i, s := range surveys {
		if s.Thumbnail == "" {
			s.Thumbnail = defaultThumbnail
		}
		if s.Status == "" {
			s.Status = "draft"
		}
		if s.Type == "" {
			s.Type = "general"
		}
		out[i] = s
	}
	return out
}
