package engine

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/internal/domain/entity"
)

// runFunc executes one validator and always returns a result
type runFunc func(ctx context.Context, id string, v port.Validator) *entity.ValidatorResult

// registered pairs a validator with the id it was registered under
type registered struct {
	id        string
	validator port.Validator
}

// strategy dispatches the selected validators of one call
type strategy interface {
	name() string
	execute(ctx context.Context, selected []registered, run runFunc) map[string]*entity.ValidatorResult
}

// sequentialStrategy runs validators one by one in selection order. With
// failFast it stops after the first ERROR result and later validators are
// neither invoked nor reported.
type sequentialStrategy struct {
	failFast bool
	logger   *zap.Logger
}

func (s *sequentialStrategy) name() string { return "sequential" }

func (s *sequentialStrategy) execute(ctx context.Context, selected []registered, run runFunc) map[string]*entity.ValidatorResult {
	results := make(map[string]*entity.ValidatorResult, len(selected))

	for i, r := range selected {
		res := run(ctx, r.id, r.validator)
		results[r.id] = res

		if s.failFast && res.Status == entity.StatusError {
			if skipped := len(selected) - i - 1; skipped > 0 {
				s.logger.Info("Fail-fast stopped sequential run",
					zap.String("validator_id", r.id),
					zap.Int("skipped", skipped))
			}
			break
		}
	}

	return results
}

// parallelStrategy runs validators concurrently, at most maxParallel at a
// time. Every selected validator gets a result. With cancelOnFailFast the
// shared context is cancelled after the first ERROR and validators that have
// not started yet are recorded as cancelled instead of invoked.
type parallelStrategy struct {
	maxParallel      int
	cancelOnFailFast bool
	logger           *zap.Logger
}

func (s *parallelStrategy) name() string { return "parallel" }

func (s *parallelStrategy) execute(ctx context.Context, selected []registered, run runFunc) map[string]*entity.ValidatorResult {
	results := make(map[string]*entity.ValidatorResult, len(selected))
	if len(selected) == 0 {
		return results
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(s.maxParallel)

	for _, r := range selected {
		r := r
		p.Go(func() {
			var res *entity.ValidatorResult
			if s.cancelOnFailFast && ctx.Err() != nil {
				res = cancelledResult(r.id, ctx.Err())
			} else {
				res = run(ctx, r.id, r.validator)
			}

			mu.Lock()
			results[r.id] = res
			mu.Unlock()

			if s.cancelOnFailFast && res.Status == entity.StatusError && ctx.Err() == nil {
				s.logger.Info("Fail-fast cancelling parallel run", zap.String("validator_id", r.id))
				cancel()
			}
		})
	}
	p.Wait()

	return results
}

func cancelledResult(id string, cause error) *entity.ValidatorResult {
	res := entity.NewErrorResult(id, cause)
	res.Findings[0] = res.Findings[0].WithMetadata("cancelled", true)
	res.Findings[0].Title = "Validator cancelled"
	res.Metadata["cancelled"] = true
	return res
}
