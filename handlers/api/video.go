package api

import (
	"net/http"

	"github.com/nijaru/vi-transcript/models"
	"github.com/nijaru/vi-transcript/services/video"
	"github.com/nijaru/vi-transcript/validation"
	"github.com/sirupsen/logrus"
)

type VideoHandler struct {
	service   video.Service
	validator *validation.Validator
	logger    *logrus.Logger
}

func NewVideoHandler(service video.Service, logger *logrus.Logger) *VideoHandler {
	return &VideoHandler{
		service: service,
		validator: validation.NewValidator(validation.RequestValidationOpts{
			AllowedMethods: allowedMethods,
		}),
		logger: logger,
	}
}

// HandleGetTranscript handles /api/get-transcript: submit, wait, fetch.
func (h *VideoHandler) HandleGetTranscript(w http.ResponseWriter, r *http.Request) {
	const op = "VideoHandler.HandleGetTranscript"
	logger := requestLogger(h.logger, r, op)

	req, err := h.videoRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	logger.WithField("video_name", req.Name).Info("Transcription requested")

	transcript, err := h.service.Transcribe(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, transcript)
}

// HandleSendVideo handles /api/send-video and answers with the bare job id.
func (h *VideoHandler) HandleSendVideo(w http.ResponseWriter, r *http.Request) {
	const op = "VideoHandler.HandleSendVideo"
	logger := requestLogger(h.logger, r, op)

	req, err := h.videoRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}

	videoID, err := h.service.Submit(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	logger.WithField("video_id", videoID).Info("Video submitted")
	respondText(w, videoID)
}

// HandleFetchTranscript handles /api/fetch-transcript for a known job id.
func (h *VideoHandler) HandleFetchTranscript(w http.ResponseWriter, r *http.Request) {
	if err := h.validator.ValidateRequest(r); err != nil {
		respondError(w, err)
		return
	}

	params, err := h.validator.RequireParams(r, video.MsgMissingVideoID, "video_id")
	if err != nil {
		respondError(w, err)
		return
	}

	transcript, err := h.service.Fetch(r.Context(), params[0])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, transcript)
}

func (h *VideoHandler) videoRequest(r *http.Request) (models.VideoRequest, error) {
	if err := h.validator.ValidateRequest(r); err != nil {
		return models.VideoRequest{}, err
	}

	params, err := h.validator.RequireParams(r, video.MsgMissingVideoParams, "video_url", "video_name")
	if err != nil {
		return models.VideoRequest{}, err
	}

	return models.VideoRequest{URL: params[0], Name: params[1]}, nil
}
