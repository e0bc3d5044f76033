package routes

import (
	"database/sql"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	gojson "github.com/goccy/go-json"
	"github.com/mattn/go-sqlite3"
	"github.com/mbolis/surveyforge/app"
	"github.com/mbolis/surveyforge/httpx"
	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/logic"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/respondent"
	"github.com/mbolis/surveyforge/transform"
	"github.com/pkg/errors"
)

// open reports whether respondents may see the survey at the given time.
func open(s model.BackendSurvey, now time.Time) bool {
	if s.Status != statusPublished || !s.IsPublic {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

func PublicGetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		survey, err := loadSurvey(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.get_public_survey", err)
			return
		}
		if !open(survey, time.Now()) {
			httpx.LogNotFound(w, "get_public_survey", surveyId)
			return
		}

		render.JSON(w, r, survey)
	}
}

// checkAnswers returns one message per visible required question left
// unanswered and per answer to a question the survey does not have.
func checkAnswers(survey model.BackendSurvey, submission model.ResponseSubmission) map[string]string {
	doc, warnings := transform.ToFrontend(survey)
	for _, w := range warnings {
		log.Warnf("submit_response.survey_%s: %s", survey.ID, w)
	}

	answers := model.Answers{}
	for _, a := range submission.Answers {
		answers[a.QuestionID] = a.Answer
	}

	errs := map[string]string{}
	for id := range answers {
		if doc.Question(id) == nil {
			errs[id] = "Unknown question"
		}
	}
	for _, page := range doc.Pages {
		for _, q := range page.Questions {
			if q.Required && logic.ShouldShow(q, answers) && !logic.IsAnswered(answers[q.ID]) {
				errs[q.ID] = respondent.RequiredMessage
			}
		}
	}
	return errs
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

type sessionCheck struct {
	start  bool
	key    string
	result chan<- bool
}

// PublicSubmitResponse stores a finished response. A session can submit once;
// a second request for a session whose first one is still running gets 409.
func PublicSubmitResponse(app app.App) http.HandlerFunc {
	sessions := make(chan sessionCheck)
	go func() {
		inFlight := make(map[string]bool)

		for req := range sessions {
			if req.start {
				req.result <- inFlight[req.key]
				inFlight[req.key] = true
			} else {
				delete(inFlight, req.key)
			}
		}
	}()

	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		submission := model.ResponseSubmission{}
		err := render.DecodeJSON(r.Body, &submission)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if submission.SessionID == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.session_id")
			return
		}

		survey, err := loadSurvey(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.submit_response.get_survey", err)
			return
		}
		if !open(survey, time.Now()) {
			httpx.LogNotFound(w, "submit_response", surveyId)
			return
		}

		if errs := checkAnswers(survey, submission); len(errs) > 0 {
			httpx.LogValidation(w, r, "request.validate_answers", errs)
			return
		}

		// check session is not submitting now
		key := strconv.Itoa(surveyId) + "/" + submission.SessionID
		done := make(chan bool)
		sessions <- sessionCheck{true, key, done}
		if <-done {
			httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, "session.in_flight", "%s", model.ErrSubmissionInFlight)
			return
		}
		defer func() { sessions <- sessionCheck{false, key, nil} }()

		// check session did not already submit
		var alreadySubmitted bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM response
			WHERE survey_id = ?
				AND session_id = ?`,
			surveyId,
			submission.SessionID,
		).Scan(&alreadySubmitted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.LogInternalError(w, "db.get_session.scan", err)
			return
		}
		if alreadySubmitted {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.already_submitted")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var responseId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO response (survey_id, session_id, time_spent, device_info, ip, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			surveyId,
			submission.SessionID,
			submission.TimeSpent,
			submission.DeviceInfo,
			remoteIP(r),
			time.Now(),
		).Scan(&responseId)
		if isUniqueViolation(err) {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.already_submitted")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO response_answer (response_id, question_id, answer)
			VALUES (?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, a := range submission.Answers {
			valueJson, err := gojson.Marshal(a.Answer)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_response.answers.encode_value", err)
				return
			}
			_, err = stmt.ExecContext(r.Context(), responseId, a.QuestionID, string(valueJson))
			if isUniqueViolation(err) {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.duplicate_answer", "question %s answered twice", a.QuestionID)
				return
			}
			if err != nil {
				httpx.LogInternalError(w, "db.insert_response.answers.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": strconv.Itoa(responseId),
		})
	}
}
