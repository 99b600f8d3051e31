package video

import (
	"context"

	"github.com/nijaru/vi-transcript/models"
)

type Service interface {
	// Transcribe submits the video, waits for indexing to finish and returns
	// its transcript.
	Transcribe(ctx context.Context, req models.VideoRequest) (*models.Transcript, error)

	// Submit only starts indexing and returns the provider job id.
	Submit(ctx context.Context, req models.VideoRequest) (string, error)

	// Fetch returns the transcript of an already submitted job.
	Fetch(ctx context.Context, videoID string) (*models.Transcript, error)
}

// Indexer is the remote video indexing provider. *indexer.Client satisfies it.
type Indexer interface {
	AccessToken(ctx context.Context) (string, error)
	SubmitVideo(ctx context.Context, accessToken, videoURL, videoName string) (string, error)
	AwaitCompletion(ctx context.Context, videoID, accessToken string) error
	FetchTranscript(ctx context.Context, videoID, accessToken string) (*models.Transcript, error)
}

// Archiver keeps an outbound copy of fetched transcripts.
type Archiver interface {
	SaveTranscript(ctx context.Context, transcript *models.Transcript) error
}
