package indexer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AwaitCompletion polls the job state every poll interval until it reports
// Processed, fails terminally, the poll timeout elapses, or ctx is done.
//
// A status check that fails (non-200, transport error) counts as "not yet
// processed" and the loop keeps going.
func (c *Client) AwaitCompletion(ctx context.Context, videoID, accessToken string) error {
	logger := c.logger.WithFields(logrus.Fields{
		"operation": "Client.AwaitCompletion",
		"video_id":  videoID,
	})

	start := time.Now()
	for attempt := 1; ; attempt++ {
		elapsed := time.Since(start)
		if elapsed >= c.pollTimeout {
			logger.WithFields(logrus.Fields{
				"polls":   attempt - 1,
				"elapsed": elapsed.String(),
			}).Warn("Indexing did not complete before the poll timeout")
			return errors.Wrapf(ErrTimeout, "waited %s", elapsed.Round(time.Millisecond))
		}

		index, err := c.getIndex(ctx, videoID, accessToken)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return contextError(ctx.Err())
			}
			logger.WithError(err).WithFields(logrus.Fields{
				"attempt": attempt,
				"status":  StatusCode(err),
			}).Warn("Status check failed, treating as not processed")
		case index.State.IsProcessed():
			logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"elapsed": elapsed.String(),
			}).Info("Indexing completed")
			return nil
		case index.State.IsFailed():
			logger.WithField("state", index.State).Error("Indexing failed")
			return errors.Wrapf(ErrIndexingFailed, "state is %s", index.State)
		default:
			logger.WithFields(logrus.Fields{
				"attempt":  attempt,
				"state":    index.State,
				"progress": index.progress(),
				"elapsed":  elapsed.String(),
			}).Info("Indexing in progress")
		}

		wait := c.pollInterval
		if remaining := c.pollTimeout - time.Since(start); remaining < wait {
			wait = max(remaining, 0)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return contextError(ctx.Err())
		}
	}
}

// contextError maps a request deadline onto ErrTimeout; cancellation is
// returned as is.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(ErrTimeout, "request deadline exceeded")
	}
	return errors.Wrap(err, "wait for indexing cancelled")
}
