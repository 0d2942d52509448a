// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/briefly/briefly/internal/metrics"
	"github.com/briefly/briefly/internal/quota"
	"github.com/briefly/briefly/internal/summarizer"
)

// Service errors.
var (
	ErrEmptyContent   = errors.New("content must not be empty")
	ErrContentTooLong = errors.New("content exceeds maximum length")
	ErrInvalidBounds  = errors.New("invalid summary length bounds")
)

const (
	maxContentLength = 100_000

	// Summary length defaults, in words.
	DefaultMaxWords = 130
	DefaultMinWords = 30
)

// SummaryService admits requests through the quota gate and runs the
// summarizer for those that pass.
type SummaryService struct {
	gate       *quota.Gate
	summarizer summarizer.Summarizer
	timeout    time.Duration
	metrics    metrics.Recorder
}

// NewSummaryService creates a new SummaryService. timeout bounds each
// model call; a non-positive value disables the bound.
func NewSummaryService(gate *quota.Gate, sum summarizer.Summarizer, timeout time.Duration, recorder metrics.Recorder) *SummaryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SummaryService{
		gate:       gate,
		summarizer: sum,
		timeout:    timeout,
		metrics:    recorder,
	}
}

// SummarizeInput defines input for a summarization request.
type SummarizeInput struct {
	UserID   string
	Content  string
	MaxWords int
	MinWords int
}

// SummarizeResult carries the summary and the admission outcome that
// produced it. Admission is also populated on gate rejections so
// callers can surface limit headers.
type SummarizeResult struct {
	Summary   string
	Admission *quota.Result
}

// Summarize validates the input, charges the user's quota, and calls
// the summarizer. Quota consumed by an admitted request is not
// refunded when the model call fails afterwards.
func (s *SummaryService) Summarize(ctx context.Context, input SummarizeInput) (*SummarizeResult, error) {
	if err := validateSummarizeInput(&input); err != nil {
		return nil, err
	}

	admission, err := s.gate.Admit(ctx, input.UserID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrRateLimited):
			s.metrics.IncAdmissionRejected("rate_limited")
		case errors.Is(err, quota.ErrQuotaExceeded):
			s.metrics.IncAdmissionRejected("quota_exceeded")
		}
		return &SummarizeResult{Admission: admission}, err
	}
	s.metrics.IncAdmissionAllowed()

	// The gate released its lock before this point. The model call runs
	// outside any critical section so slow summaries never serialize
	// other users' admissions.
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := s.summarizer.Summarize(callCtx, input.Content, input.MaxWords, input.MinWords)
	s.metrics.ObserveSummarizeDuration(time.Since(start))
	if err != nil {
		s.metrics.IncSummarizeFailure()
		if !errors.Is(err, summarizer.ErrSummarization) {
			err = fmt.Errorf("%w: %v", summarizer.ErrSummarization, err)
		}
		return &SummarizeResult{Admission: admission}, err
	}
	s.metrics.IncSummarizeSuccess()

	return &SummarizeResult{
		Summary:   summary,
		Admission: admission,
	}, nil
}

func validateSummarizeInput(input *SummarizeInput) error {
	if strings.TrimSpace(input.Content) == "" {
		return ErrEmptyContent
	}
	if len(input.Content) > maxContentLength {
		return fmt.Errorf("%w: %d bytes, max %d", ErrContentTooLong, len(input.Content), maxContentLength)
	}

	if input.MaxWords == 0 {
		input.MaxWords = DefaultMaxWords
	}
	if input.MinWords == 0 {
		input.MinWords = DefaultMinWords
	}
	if input.MaxWords < 0 || input.MinWords < 0 || input.MinWords > input.MaxWords {
		return fmt.Errorf("%w: min %d, max %d", ErrInvalidBounds, input.MinWords, input.MaxWords)
	}
	return nil
}
