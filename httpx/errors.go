package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/surveyforge/log"
	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// Will log a validation failure, and send a 422 response listing
// the message of every failing question
func LogValidation(w http.ResponseWriter, r *http.Request, code string, errs map[string]string) {
	log.WithFields(log.Fields{"errors": errs}).Debug(code)
	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, map[string]any{
		"errors": errs,
	})
}

// Will map err to a status by its sentinel, log it, and send the response
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		LogValidation(w, r, code, verr.Errors)
	case errors.Is(err, model.ErrNotFound):
		LogStatusMsg(w, http.StatusNotFound, log.DebugLevel, code, "%s", err)
	case errors.Is(err, model.ErrSubmissionInFlight):
		LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	case errors.Is(err, model.ErrConstraintViolation), errors.Is(err, model.ErrMalformedField):
		LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
	default:
		LogInternalError(w, code, err)
	}
}
