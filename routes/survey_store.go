package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func jsonText(raw json.RawMessage, empty string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return empty
	}
	return string(raw)
}

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

// checkSurvey rejects documents the schema cannot hold.
func checkSurvey(s *model.BackendSurvey) error {
	pageIDs := map[string]bool{}
	questionIDs := map[string]bool{}
	for p := range s.Pages {
		page := &s.Pages[p]
		if page.ID == "" {
			page.ID = fmt.Sprintf("page_%d", p+1)
		}
		if pageIDs[page.ID] {
			return errors.Wrapf(model.ErrConstraintViolation, "duplicate page id %q", page.ID)
		}
		pageIDs[page.ID] = true

		for q := range page.Questions {
			question := &page.Questions[q]
			if !question.Type.Valid() {
				return errors.Wrapf(model.ErrConstraintViolation, "question type %q", question.Type)
			}
			if question.ID == "" {
				question.ID = fmt.Sprintf("%s_q_%d", page.ID, q+1)
			}
			if questionIDs[question.ID] {
				return errors.Wrapf(model.ErrConstraintViolation, "duplicate question id %q", question.ID)
			}
			questionIDs[question.ID] = true
			if question.Name == "" {
				question.Name = question.ID
			}
		}
	}
	return nil
}

func insertPages(ctx context.Context, tx *sql.Tx, surveyId int, pages []model.BackendPage) error {
	pageStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_page (survey_id, id, name, order_index)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "pages.prepare")
	}
	defer pageStmt.Close()

	questionStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_question (
			survey_id, page_id, id, name, type, title, description, placeholder,
			required, order_index, validation, conditional_logic, styling, options
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "questions.prepare")
	}
	defer questionStmt.Close()

	for p, page := range pages {
		_, err = pageStmt.ExecContext(ctx, surveyId, page.ID, page.Name, p)
		if err != nil {
			return errors.Wrapf(err, "pages.insert %q", page.ID)
		}

		for q, f := range page.Questions {
			options := f.Options
			if options == nil {
				options = []model.Option{}
			}
			optionsJson, err := gojson.Marshal(options)
			if err != nil {
				return errors.Wrapf(err, "questions.encode_options %q", f.ID)
			}

			_, err = questionStmt.ExecContext(ctx,
				surveyId, page.ID, f.ID, f.Name, f.Type, f.Title, f.Description, f.Placeholder,
				f.Required, q,
				jsonText(f.Validation, "{}"),
				jsonText(f.ConditionalLogic, "{}"),
				jsonText(f.Styling, "{}"),
				string(optionsJson),
			)
			if err != nil {
				return errors.Wrapf(err, "questions.insert %q", f.ID)
			}
		}
	}
	return nil
}

// loadSurvey reads a whole survey with its pages and questions in order.
func loadSurvey(ctx context.Context, db querier, surveyId int) (model.BackendSurvey, error) {
	survey := model.BackendSurvey{}
	var settings, theme string
	var expiresAt sql.NullTime
	var createdAt, updatedAt time.Time
	err := db.QueryRowContext(ctx, `
		SELECT
			id, version, title, description, settings, theme,
			is_public, allow_anonymous, expires_at, status, created_at, updated_at
		FROM survey
		WHERE id = ?`,
		surveyId,
	).Scan(
		&surveyId, &survey.Version, &survey.Title, &survey.Description, &settings, &theme,
		&survey.IsPublic, &survey.AllowAnonymous, &expiresAt, &survey.Status, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return survey, errors.Wrapf(model.ErrNotFound, "survey %d", surveyId)
	}
	if err != nil {
		return survey, errors.Wrap(err, "survey.scan")
	}
	survey.ID = strconv.Itoa(surveyId)
	survey.Settings = rawJSON(settings)
	survey.Theme = rawJSON(theme)
	if expiresAt.Valid {
		survey.ExpiresAt = &expiresAt.Time
	}
	survey.CreatedAt = &createdAt
	survey.UpdatedAt = &updatedAt
	survey.Pages = []model.BackendPage{}

	rows, err := db.QueryContext(ctx, `
		SELECT
			p.id, p.name, p.order_index,
			q.id, q.name, q.type, q.title, q.description, q.placeholder, q.required,
			q.order_index, q.validation, q.conditional_logic, q.styling, q.options
		FROM survey_page p
		LEFT OUTER JOIN survey_question q ON (p.survey_id = q.survey_id AND p.id = q.page_id)
		WHERE p.survey_id = ?
		ORDER BY p.order_index, q.order_index`,
		surveyId,
	)
	if err != nil {
		return survey, errors.Wrap(err, "pages.query")
	}
	defer rows.Close()

	for rows.Next() {
		page := model.BackendPage{}
		var (
			qID, qName, qType, qTitle, qDescription, qPlaceholder sql.NullString
			qRequired                                             sql.NullBool
			qOrder                                                sql.NullInt64
			qValidation, qLogic, qStyling, qOptions               sql.NullString
		)
		err = rows.Scan(
			&page.ID, &page.Name, &page.OrderIndex,
			&qID, &qName, &qType, &qTitle, &qDescription, &qPlaceholder, &qRequired,
			&qOrder, &qValidation, &qLogic, &qStyling, &qOptions,
		)
		if err != nil {
			return survey, errors.Wrap(err, "pages.scan")
		}

		last := len(survey.Pages) - 1
		if last < 0 || survey.Pages[last].ID != page.ID {
			page.Questions = []model.BackendQuestion{}
			survey.Pages = append(survey.Pages, page)
			last++
		}
		if !qID.Valid {
			continue
		}

		q := model.BackendQuestion{
			ID:               qID.String,
			Name:             qName.String,
			Type:             model.BackendType(qType.String),
			Title:            qTitle.String,
			Description:      qDescription.String,
			Placeholder:      qPlaceholder.String,
			Required:         qRequired.Bool,
			OrderIndex:       int(qOrder.Int64),
			Validation:       rawJSON(qValidation.String),
			ConditionalLogic: rawJSON(qLogic.String),
			Styling:          rawJSON(qStyling.String),
			Options:          []model.Option{},
		}
		if qOptions.String != "" {
			err = gojson.Unmarshal([]byte(qOptions.String), &q.Options)
			if err != nil {
				return survey, errors.Wrapf(err, "questions.parse_options %q", q.ID)
			}
		}
		survey.Pages[last].Questions = append(survey.Pages[last].Questions, q)
	}
	return survey, errors.Wrap(rows.Err(), "pages.rows")
}
