package summary

import (
	"context"

	"github.com/nijaru/vi-transcript/models"
)

type Service interface {
	// Summarize applies the request instruction to its text and returns the
	// model's answer verbatim.
	Summarize(ctx context.Context, req models.SummaryRequest) (string, error)
}

type Config struct {
	Model       string
	Temperature float64
}
