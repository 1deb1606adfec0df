package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"socialfeed/app/auth"
	"socialfeed/app/repositories"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// httpStatus maps service and store errors onto response codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, repositories.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// responder holds the helpers shared by every controller.
type responder struct {
	logger logrus.FieldLogger
}

func (rs responder) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.WithError(err).Warn("failed to write response")
	}
}

// sendError writes {"error": ...}. Server errors are logged and replaced
// with a generic message.
func (rs responder) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		rs.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		}).Error("request failed")
		message = http.StatusText(status)
	}
	rs.sendJSON(w, status, map[string]string{"error": message})
}

func (rs responder) decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &validationError{"invalid JSON: " + err.Error()}
	}
	return nil
}

// pathID reads a numeric route variable.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, &validationError{"invalid " + name}
	}
	return id, nil
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return repositories.ErrValidation }
