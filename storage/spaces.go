package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nijaru/vi-transcript/config"
	"github.com/nijaru/vi-transcript/models"
	"github.com/pkg/errors"
)

// SpacesClient archives transcripts to an S3-compatible bucket such as
// DigitalOcean Spaces, MinIO or S3 itself.
type SpacesClient struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

type archivedTranscript struct {
	VideoID    string    `json:"video_id"`
	Transcript []string  `json:"transcript"`
	ArchivedAt time.Time `json:"archived_at"`
}

func NewSpacesClient(ctx context.Context, cfg config.ArchiveConfig) (*SpacesClient, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &SpacesClient{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

// Key is the object key a transcript is stored under.
func (s *SpacesClient) Key(videoID string) string {
	return s.prefix + videoID + ".json"
}

func (s *SpacesClient) SaveTranscript(ctx context.Context, transcript *models.Transcript) error {
	if transcript == nil || transcript.VideoID == "" {
		return errors.New("transcript has no video id")
	}

	data, err := json.Marshal(archivedTranscript{
		VideoID:    transcript.VideoID,
		Transcript: transcript.Lines,
		ArchivedAt: s.now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal transcript")
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(transcript.VideoID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to save transcript %s", transcript.VideoID)
	}

	return nil
}
