package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	gojson "github.com/goccy/go-json"
	"github.com/mbolis/surveyforge/app"
	"github.com/mbolis/surveyforge/httpx"
	"github.com/mbolis/surveyforge/logic"
	"github.com/mbolis/surveyforge/model"
	"github.com/spf13/cast"
)

// backend types whose answers are tallied by value
var distributed = map[model.BackendType]bool{
	model.BackendRadio:    true,
	model.BackendCheckbox: true,
	model.BackendSelect:   true,
	model.BackendRating:   true,
}

// tally adds one answer to a value distribution. Lists count each element.
func tally(dist map[string]int, answer any) {
	switch v := answer.(type) {
	case []any:
		for _, e := range v {
			tally(dist, e)
		}
	case nil:
	default:
		s, err := cast.ToStringE(v)
		if err == nil && s != "" {
			dist[s]++
		}
	}
}

func SurveyAnalytics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		survey, err := loadSurvey(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.analytics.get_survey", err)
			return
		}

		analytics := model.Analytics{
			SurveyID:  strconv.Itoa(surveyId),
			Questions: []model.QuestionAnalytics{},
		}
		var avg *float64
		err = app.QueryRowContext(r.Context(), `
			SELECT COUNT(*), AVG(time_spent)
			FROM response
			WHERE survey_id = ?`,
			surveyId,
		).Scan(&analytics.Responses, &avg)
		if err != nil {
			httpx.LogInternalError(w, "db.analytics.responses", err)
			return
		}
		if avg != nil {
			analytics.AverageTimeSpent = *avg
		}

		index := map[string]int{}
		for _, page := range survey.Pages {
			for _, q := range page.Questions {
				qa := model.QuestionAnalytics{QuestionID: q.ID, Title: q.Title}
				if distributed[q.Type] {
					qa.Distribution = map[string]int{}
				}
				index[q.ID] = len(analytics.Questions)
				analytics.Questions = append(analytics.Questions, qa)
			}
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT a.question_id, a.answer
			FROM response_answer a
			INNER JOIN response x ON (x.id = a.response_id)
			WHERE x.survey_id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.analytics.answers", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var questionId, value string
			err = rows.Scan(&questionId, &value)
			if err != nil {
				httpx.LogInternalError(w, "db.analytics.answers.scan", err)
				return
			}
			i, known := index[questionId]
			if !known {
				// question removed since the response was given
				continue
			}

			var answer any
			err = gojson.Unmarshal([]byte(value), &answer)
			if err != nil {
				httpx.LogInternalError(w, "db.analytics.answers.parse_value", err)
				return
			}
			if !logic.IsAnswered(answer) {
				continue
			}
			qa := &analytics.Questions[i]
			qa.Answered++
			if qa.Distribution != nil {
				tally(qa.Distribution, answer)
			}
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.analytics.answers.rows", err)
			return
		}

		render.JSON(w, r, analytics)
	}
}
