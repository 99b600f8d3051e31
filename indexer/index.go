package indexer

import (
	"context"
	"net/http"
	"net/url"

	"github.com/nijaru/vi-transcript/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// videoIndex is the subset of the Index response this service reads.
type videoIndex struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	State  models.State   `json:"state"`
	Videos []indexedVideo `json:"videos"`
}

type indexedVideo struct {
	ID                 string       `json:"id"`
	State              models.State `json:"state"`
	ProcessingProgress string       `json:"processingProgress"`
	Insights           *insights    `json:"insights"`
}

type insights struct {
	Transcript []transcriptLine `json:"transcript"`
}

type transcriptLine struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func (v *videoIndex) progress() string {
	if len(v.Videos) == 0 {
		return ""
	}
	return v.Videos[0].ProcessingProgress
}

func (c *Client) getIndex(ctx context.Context, videoID, accessToken string) (*videoIndex, error) {
	query := url.Values{
		"accessToken": {accessToken},
		"language":    {c.language},
	}

	segment, err := videoSegment(videoID)
	if err != nil {
		return nil, err
	}

	endpoint, err := c.endpoint(query, c.accountPath("Videos", segment, "Index")...)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	var index videoIndex
	if err := decodeJSON(body, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// FetchTranscript returns the transcript of the first video entry of a
// processed job as a flat ordered list of lines.
func (c *Client) FetchTranscript(ctx context.Context, videoID, accessToken string) (*models.Transcript, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"operation": "Client.FetchTranscript",
		"video_id":  videoID,
	})

	index, err := c.getIndex(ctx, videoID, accessToken)
	if err != nil {
		logger.WithError(err).WithField("status", StatusCode(err)).Warn("Index lookup failed")
		return nil, mark(ErrNotFoundOrProcessing, err)
	}

	if index.State != "" && !index.State.IsProcessed() {
		return nil, mark(ErrNotFoundOrProcessing, errors.Errorf("state is %s", index.State))
	}

	if len(index.Videos) == 0 {
		return nil, mark(ErrNotFoundOrProcessing, errors.New("index has no video entries"))
	}

	video := index.Videos[0]
	if video.Insights == nil {
		return nil, mark(ErrNotFoundOrProcessing, errors.New("index has no insights"))
	}

	lines := make([]string, 0, len(video.Insights.Transcript))
	for _, line := range video.Insights.Transcript {
		lines = append(lines, line.Text)
	}

	logger.WithField("lines", len(lines)).Info("Transcript fetched")
	return models.NewTranscript(videoID, lines), nil
}
