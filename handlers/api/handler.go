package api

import (
	"net/http"

	"github.com/nijaru/vi-transcript/middleware"
	"github.com/nijaru/vi-transcript/utils"
	"github.com/sirupsen/logrus"
)

// allowedMethods mirrors the GET and POST bindings of every /api route.
var allowedMethods = []string{http.MethodGet, http.MethodPost}

func requestLogger(logger *logrus.Logger, r *http.Request, op string) *logrus.Entry {
	return logger.WithContext(r.Context()).WithFields(logrus.Fields{
		"operation":  op,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

func respondError(w http.ResponseWriter, err error) {
	utils.RespondWithError(w, err)
}

func respondText(w http.ResponseWriter, body string) {
	utils.RespondWithText(w, http.StatusOK, body)
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	utils.RespondWithJSON(w, http.StatusOK, payload)
}
