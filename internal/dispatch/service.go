package dispatch

import (
	"context"

	"github.com/subwatch/reminder-dispatch/internal/digest"
	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// Service is what the HTTP trigger and the cron runner invoke: one batch
// pass plus the digest check, folded into a single DispatchResult. The
// digest gates itself on its own trigger window, so calling RunAll at
// any cadence is safe.
type Service struct {
	orch     *Orchestrator
	digest   *digest.Scheduler
	onDigest func(sent int)
}

// NewService builds the combined runner. onDigest is invoked with the
// number of digests delivered on each run; nil disables the callback.
func NewService(orch *Orchestrator, dg *digest.Scheduler, onDigest func(sent int)) *Service {
	if onDigest == nil {
		onDigest = func(int) {}
	}
	return &Service{orch: orch, digest: dg, onDigest: onDigest}
}

// RunAll executes the reminder batch and the digest check. The error is
// top-level only (snapshots unloadable); everything else lands in the
// result's errors/warnings.
func (s *Service) RunAll(ctx context.Context) (domain.DispatchResult, error) {
	result, err := s.orch.Run(ctx)
	if err != nil {
		return result, err
	}

	sent, errs := s.digest.Run(ctx)
	if sent > 0 {
		s.onDigest(sent)
	}
	result.GeneralNotifications += sent
	result.Errors = append(result.Errors, errs...)

	return result, nil
}
