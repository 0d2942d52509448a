// Package summarizer produces abstractive text summaries through an
// external language model.
package summarizer

import (
	"context"
	"errors"
)

// ErrSummarization indicates the model call failed or returned no
// usable text. Quota already consumed for the request is not refunded.
var ErrSummarization = errors.New("summarization failed")

// Summarizer condenses text into a summary bounded by minWords and
// maxWords.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxWords, minWords int) (string, error)
}
