package utils

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/nijaru/vi-transcript/errors"
	"github.com/sirupsen/logrus"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json"
)

// RespondWithError writes the user-facing message of err as plain text.
// Errors that are not AppErrors become a generic 500.
func RespondWithError(w http.ResponseWriter, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("", err, "Internal server error")
	}

	entry := logrus.WithFields(logrus.Fields{
		"status_code": appErr.Code,
		"operation":   appErr.Op,
		"error":       appErr.Error(),
	})
	if appErr.Code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	RespondWithText(w, appErr.Code, appErr.Message)
}

func RespondWithText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		logrus.WithError(err).Error("Failed to write response")
	}
}

// RespondWithJSON encodes payload without HTML escaping so transcript text
// reaches the client unchanged.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		RespondWithError(w, errors.Internal("RespondWithJSON", err, "Failed to encode response"))
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	if _, err := w.Write(bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
		logrus.WithError(err).Error("Failed to write response")
	}
}
