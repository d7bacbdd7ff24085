package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackzampolin/toccata/internal/extract"
)

// VerificationError marks a run that aborted because the single
// verification call failed fatally or exhausted its retries. It is
// distinguishable from a no-candidates termination, which is not an error.
type VerificationError struct {
	Kind extract.FailureKind
	Err  error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification pass failed (%s): %v", e.Kind, e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// IsVerificationError reports whether err is a verification abort.
func IsVerificationError(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}

// verify runs the single high-fidelity extraction over the candidate page
// subsequence. The returned entries are authoritative for the run even when
// empty.
func (p *Pipeline) verify(ctx context.Context, runID string, pages []PageImage, candidates []int) (*extract.Result, error) {
	images := make([][]byte, 0, len(candidates))
	for _, idx := range candidates {
		if idx < 0 || idx >= len(pages) {
			return nil, &VerificationError{
				Kind: extract.KindFatal,
				Err:  fmt.Errorf("candidate page %d out of range [0,%d)", idx, len(pages)),
			}
		}
		images = append(images, pages[idx].Data)
	}

	res, err := p.retry.Do(ctx, func(ctx context.Context) (*extract.Result, error) {
		return p.extractor.Extract(ctx, extract.Request{
			Images:   images,
			Fidelity: extract.FidelityVerification,
			RunID:    runID,
			Window:   extract.VerifyWindow,
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &VerificationError{Kind: extract.KindOf(err), Err: err}
	}
	return res, nil
}
