package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/legalize/backoffice/internal/common"
)

// envelope is the body of every JSON response. Extra keys of successful
// responses are merged next to status and message.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func success(w http.ResponseWriter, status int, message string, data envelope) {
	body := envelope{"status": "success", "message": message}
	for k, v := range data {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func failure(w http.ResponseWriter, status int, message string, fields map[string][]string, data envelope) {
	body := envelope{"status": "error", "message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	for k, v := range data {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// statusFor maps service errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrNotSummons),
		errors.Is(err, common.ErrNotAwaiting):
		return http.StatusConflict
	case errors.Is(err, common.ErrNothingParsed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusNotFound:
		return "not found"
	case http.StatusBadRequest:
		return "validation failed"
	}
	return err.Error()
}

// fieldErrors flattens validator failures into {field: [messages]}.
func fieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := snakeCase(fe.Field())
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out[name] = append(out[name], msg)
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range s {
		if unicode.IsUpper(r) {
			if prev != 0 && !unicode.IsUpper(prev) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
