package routes

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/surveyforge/app"
	"github.com/mbolis/surveyforge/httpx"
	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/model"
	"github.com/mbolis/surveyforge/transform"
	"github.com/pkg/errors"
)

const (
	statusDraft     = "draft"
	statusPublished = "published"
)

func surveyIdParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return 0, false
	}
	return surveyId, true
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.BackendSurvey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err = checkSurvey(&survey); err != nil {
			httpx.LogError(w, r, "request.validate_survey", err)
			return
		}
		if survey.Status == "" {
			survey.Status = statusDraft
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		now := time.Now()
		var surveyId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO survey (
				title, description, settings, theme, is_public, allow_anonymous,
				expires_at, status, created_at, updated_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			survey.Title,
			survey.Description,
			jsonText(survey.Settings, "{}"),
			jsonText(survey.Theme, "{}"),
			survey.IsPublic,
			survey.AllowAnonymous,
			survey.ExpiresAt,
			survey.Status,
			now,
			now,
		).Scan(&surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		err = insertPages(r.Context(), tx, surveyId, survey.Pages)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.pages", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": strconv.Itoa(surveyId),
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT
				s.id, s.title, s.description, s.status, s.is_duplicated,
				s.created_at, s.updated_at,
				(SELECT COUNT(*) FROM response x WHERE x.survey_id = s.id)
			FROM survey s
			ORDER BY s.updated_at DESC, s.id DESC`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		surveys := []model.SurveySummary{}
		for rows.Next() {
			s := model.SurveySummary{}
			var id int
			var createdAt, updatedAt time.Time
			err = rows.Scan(
				&id, &s.Title, &s.Description, &s.Status, &s.IsDuplicated,
				&createdAt, &updatedAt,
				&s.ResponseCount,
			)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}
			s.ID = strconv.Itoa(id)
			s.CreatedAt = &createdAt
			s.UpdatedAt = &updatedAt

			surveys = append(surveys, s)
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_surveys.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": transform.SurveyList(surveys),
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		survey, err := loadSurvey(r.Context(), app, surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.get_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

// UpdateSurvey replaces a survey's content. The body must carry the version
// it was read at; a stale version is answered with 409.
func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		survey := model.BackendSurvey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err = checkSurvey(&survey); err != nil {
			httpx.LogError(w, r, "request.validate_survey", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(r.Context(), `
			UPDATE survey
			SET
				title = ?,
				description = ?,
				settings = ?,
				theme = ?,
				is_public = ?,
				allow_anonymous = ?,
				expires_at = ?,
				status = COALESCE(NULLIF(?, ''), status),
				updated_at = ?,
				version = version+1
			WHERE id = ?
				AND version = ?`,
			survey.Title,
			survey.Description,
			jsonText(survey.Settings, "{}"),
			jsonText(survey.Theme, "{}"),
			survey.IsPublic,
			survey.AllowAnonymous,
			survey.ExpiresAt,
			survey.Status,
			time.Now(),
			surveyId,
			survey.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			var exists bool
			err = tx.QueryRowContext(r.Context(), "SELECT 1 FROM survey WHERE id = ?", surveyId).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogNotFound(w, "update_survey", surveyId)
				return
			}
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_survey.verify.conflict")
			return
		}

		// questions go with their pages
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM survey_page
			WHERE survey_id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.delete_pages", err)
			return
		}

		err = insertPages(r.Context(), tx, surveyId, survey.Pages)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.pages", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DuplicateSurvey copies a survey with its pages and questions into a new
// draft titled "<title> (Copy)". Responses are not copied.
func DuplicateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		survey, err := loadSurvey(r.Context(), tx, surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.duplicate_survey.load", err)
			return
		}

		now := time.Now()
		var copyId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO survey (
				title, description, settings, theme, is_public, allow_anonymous,
				expires_at, status, is_duplicated, created_at, updated_at
			)
			VALUES (?, ?, ?, ?, 0, ?, ?, ?, 1, ?, ?)
			RETURNING id`,
			survey.Title+" (Copy)",
			survey.Description,
			jsonText(survey.Settings, "{}"),
			jsonText(survey.Theme, "{}"),
			survey.AllowAnonymous,
			survey.ExpiresAt,
			statusDraft,
			now,
			now,
		).Scan(&copyId)
		if err != nil {
			httpx.LogInternalError(w, "db.duplicate_survey", err)
			return
		}

		err = insertPages(r.Context(), tx, copyId, survey.Pages)
		if err != nil {
			httpx.LogInternalError(w, "db.duplicate_survey.pages", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.duplicate_survey.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": strconv.Itoa(copyId),
		})
	}
}

// PublishSurvey opens a survey to respondents. The version is left alone so
// that an open editor can keep saving.
func PublishSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := surveyIdParam(w, r)
		if !ok {
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE survey
			SET status = ?, is_public = 1, updated_at = ?
			WHERE id = ?`,
			statusPublished,
			time.Now(),
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.publish_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.publish_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "publish_survey", surveyId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
