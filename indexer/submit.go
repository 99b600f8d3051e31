package indexer

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	applog "github.com/nijaru/vi-transcript/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	privacyPrivate    = "Private"
	presetAudioOnly   = "AudioOnly"
	streamingDisabled = "NoStreaming"
	sendSuccessEmail  = "False"
	excludedVisualAI  = "Faces,ObservedPeople,Emotions,Labels"
)

type submitResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// SubmitVideo uploads videoURL by reference for audio-only indexing and
// returns the provider job id. Visual analysis is always excluded.
func (c *Client) SubmitVideo(ctx context.Context, accessToken, videoURL, videoName string) (string, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"operation":  "Client.SubmitVideo",
		"video_url":  applog.RedactURL(videoURL),
		"video_name": videoName,
	})

	query := url.Values{
		"name":             {videoName},
		"privacy":          {privacyPrivate},
		"videoUrl":         {videoURL},
		"indexingPreset":   {presetAudioOnly},
		"accessToken":      {accessToken},
		"sendSuccessEmail": {sendSuccessEmail},
		"streamingPreset":  {streamingDisabled},
		"language":         {c.language},
		"excludedAI":       {excludedVisualAI},
	}

	endpoint, err := c.endpoint(query, c.accountPath("Videos")...)
	if err != nil {
		return "", mark(ErrSubmit, err)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint)
	if err != nil {
		logger.WithError(err).WithField("status", StatusCode(err)).Error("Video submission failed")
		return "", mark(ErrSubmit, err)
	}

	var resp submitResponse
	if err := decodeJSON(body, &resp); err != nil {
		return "", mark(ErrSubmit, err)
	}

	id := strings.TrimSpace(resp.ID)
	if id == "" {
		return "", mark(ErrSubmit, errors.New("response has no video id"))
	}

	logger.WithFields(logrus.Fields{
		"video_id": id,
		"state":    resp.State,
	}).Info("Video submitted for indexing")

	return id, nil
}
