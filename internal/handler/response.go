package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/marquee/internal/domain"
)

// NoticeGenericError is shown for every failure that is not the caller's fault.
const NoticeGenericError = "Something went wrong, please try again later."

// Envelope is the JSON response shape of the API.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

// Pagination describes the window of a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusOf maps the error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// responder is the single place where results and failures become responses.
type responder struct {
	views       *renderer
	development bool
	logger      zerolog.Logger
}

// apiFail answers a JSON request with the failure envelope. Server-side
// failures are logged with full detail and reported generically.
func (e *responder) apiFail(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := statusOf(err)

	body := Envelope{Success: false, Message: message, Error: err.Error()}

	body.Fields = fieldErrors(err)

	if status == http.StatusInternalServerError {
		e.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		body.Message = NoticeGenericError
		if !e.development {
			body.Error = domain.ErrStorage.Error()
		}
	}

	writeJSON(w, status, body)
}

// fail answers an HTML request with the error page. Only the generic notice
// reaches the visitor for server-side failures.
func (e *responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)

	data := ErrorPageData{
		PageData: page(r, "Error - Marquee"),
		Status:   status,
		Message:  err.Error(),
	}

	if status == http.StatusInternalServerError {
		e.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		data.Message = NoticeGenericError
		if e.development {
			data.Detail = err.Error()
		}
	}

	e.views.render(w, r, status, "error.html", data)
}

// notFound renders the 404 page.
func (e *responder) notFound(w http.ResponseWriter, r *http.Request) {
	data := ErrorPageData{
		PageData: page(r, "Page Not Found - Marquee"),
		Status:   http.StatusNotFound,
		Message:  "Sorry, the page you requested does not exist.",
	}
	if e.development {
		data.Detail = "The requested page does not exist: " + r.URL.RequestURI()
	}
	e.views.render(w, r, http.StatusNotFound, "error.html", data)
}

// fieldErrors flattens a validation failure into field → message.
func fieldErrors(err error) map[string]string {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}

	fields := make(map[string]string, len(verr.Missing)+len(verr.Fields))
	for _, name := range verr.Missing {
		fields[name] = "is required"
	}
	for name, message := range verr.Fields {
		fields[name] = message
	}
	return fields
}
