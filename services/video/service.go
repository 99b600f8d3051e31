package video

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/nijaru/vi-transcript/errors"
	"github.com/nijaru/vi-transcript/indexer"
	applog "github.com/nijaru/vi-transcript/logger"
	"github.com/nijaru/vi-transcript/models"
	"github.com/sirupsen/logrus"
)

const (
	MsgMissingVideoParams = "Please provide both 'video_url' and 'video_name' in the query string."
	MsgMissingVideoID     = "Please provide 'video_id' in the query string."
	MsgAccessToken        = "Failed to get access token"
	MsgSubmit             = "Failed to index video"
	MsgTimeout            = "Indexing not completed in a reasonable time."
	MsgIndexingFailed     = "Video indexing failed"
	MsgNotFound           = "Video not found/processing"
	MsgCancelled          = "Request cancelled"

	archiveTimeout = 30 * time.Second
)

type service struct {
	indexer  Indexer
	archiver Archiver
	logger   *logrus.Logger
}

type Option func(*service)

// WithArchiver stores every fetched transcript through a.
func WithArchiver(a Archiver) Option {
	return func(s *service) {
		s.archiver = a
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

func NewService(idx Indexer, opts ...Option) Service {
	s := &service{
		indexer: idx,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Transcribe(ctx context.Context, req models.VideoRequest) (*models.Transcript, error) {
	const op = "VideoService.Transcribe"
	logger := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"operation":  op,
		"video_url":  applog.RedactURL(req.URL),
		"video_name": req.Name,
	})

	if err := validateVideoRequest(op, req); err != nil {
		return nil, err
	}

	token, err := s.accessToken(ctx, op)
	if err != nil {
		return nil, err
	}

	videoID, err := s.submit(ctx, op, token, req)
	if err != nil {
		return nil, err
	}
	logger = logger.WithField("video_id", videoID)

	if err := s.indexer.AwaitCompletion(ctx, videoID, token); err != nil {
		logger.WithError(err).Error("Indexing did not complete")
		return nil, mapWaitError(op, err)
	}

	transcript, err := s.fetch(ctx, op, videoID, token)
	if err != nil {
		return nil, err
	}

	logger.WithField("lines", len(transcript.Lines)).Info("Transcription completed")
	return transcript, nil
}

func (s *service) Submit(ctx context.Context, req models.VideoRequest) (string, error) {
	const op = "VideoService.Submit"

	if err := validateVideoRequest(op, req); err != nil {
		return "", err
	}

	token, err := s.accessToken(ctx, op)
	if err != nil {
		return "", err
	}

	return s.submit(ctx, op, token, req)
}

func (s *service) Fetch(ctx context.Context, videoID string) (*models.Transcript, error) {
	const op = "VideoService.Fetch"

	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, errors.InvalidInput(op, nil, MsgMissingVideoID)
	}

	token, err := s.accessToken(ctx, op)
	if err != nil {
		return nil, err
	}

	return s.fetch(ctx, op, videoID, token)
}

func validateVideoRequest(op string, req models.VideoRequest) error {
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Name) == "" {
		return errors.InvalidInput(op, nil, MsgMissingVideoParams)
	}
	return nil
}

func (s *service) accessToken(ctx context.Context, op string) (string, error) {
	token, err := s.indexer.AccessToken(ctx)
	if err != nil {
		return "", errors.Internal(op, err, MsgAccessToken)
	}
	return token, nil
}

func (s *service) submit(ctx context.Context, op, token string, req models.VideoRequest) (string, error) {
	videoID, err := s.indexer.SubmitVideo(ctx, token, req.URL, req.Name)
	if err != nil {
		return "", errors.Internal(op, err, MsgSubmit)
	}
	return videoID, nil
}

func (s *service) fetch(ctx context.Context, op, videoID, token string) (*models.Transcript, error) {
	transcript, err := s.indexer.FetchTranscript(ctx, videoID, token)
	if err != nil {
		return nil, errors.Internal(op, err, MsgNotFound)
	}

	s.archive(ctx, transcript)
	return transcript, nil
}

// archive never fails the request; the copy is best effort.
func (s *service) archive(ctx context.Context, transcript *models.Transcript) {
	if s.archiver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := s.archiver.SaveTranscript(ctx, transcript); err != nil {
		s.logger.WithError(err).WithField("video_id", transcript.VideoID).Warn("Failed to archive transcript")
	}
}

func mapWaitError(op string, err error) error {
	switch {
	case stderrors.Is(err, indexer.ErrTimeout):
		return errors.Internal(op, err, MsgTimeout)
	case stderrors.Is(err, indexer.ErrIndexingFailed):
		return errors.Internal(op, err, MsgIndexingFailed)
	case stderrors.Is(err, context.Canceled):
		return errors.Internal(op, err, MsgCancelled)
	default:
		return errors.Internal(op, err, MsgTimeout)
	}
}
