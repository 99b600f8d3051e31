package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/nijaru/vi-transcript/errors"
	"github.com/nijaru/vi-transcript/models"
	"github.com/nijaru/vi-transcript/services/summary"
	"github.com/nijaru/vi-transcript/validation"
	"github.com/sirupsen/logrus"
)

const maxSummaryBody = 32 << 20

type SummaryHandler struct {
	service   summary.Service
	validator *validation.Validator
	logger    *logrus.Logger
	maxBody   int64
}

func NewSummaryHandler(service summary.Service, logger *logrus.Logger) *SummaryHandler {
	return &SummaryHandler{
		service: service,
		validator: validation.NewValidator(validation.RequestValidationOpts{
			AllowedMethods:   allowedMethods,
			MaxContentLength: maxSummaryBody,
		}),
		logger:  logger,
		maxBody: maxSummaryBody,
	}
}

// HandleGetSummary handles /api/Get-Summary. The instruction comes from the
// prompt query parameter and the text is the raw request body.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "SummaryHandler.HandleGetSummary"
	logger := requestLogger(h.logger, r, op)

	if err := h.validator.ValidateRequest(r); err != nil {
		respondError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			respondError(w, errors.E(op, err, validation.MsgBodyTooLarge, http.StatusRequestEntityTooLarge))
			return
		}
		respondError(w, errors.InvalidInput(op, err, summary.MsgMissingInput))
		return
	}

	result, err := h.service.Summarize(r.Context(), models.SummaryRequest{
		Instruction: r.URL.Query().Get("prompt"),
		Text:        string(body),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	logger.WithField("summary_length", len(result)).Info("Summary returned")
	respondText(w, result)
}
