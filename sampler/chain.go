package sampler

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RunAll runs independent samplers concurrently, one goroutine each, and
// returns their results in argument order. Samplers must not share a
// generator. Every sampler runs to its own end even when another fails; the
// first error is returned alongside whatever results (partial included)
// were produced.
func RunAll(samplers ...Sampler) ([]*Result, error) {
	if len(samplers) < 1 {
		return nil, errors.Errorf("Can not run 0 samplers")
	}

	for i, s := range samplers {
		if s == nil {
			return nil, errors.Errorf("Sampler %d is nil", i)
		}
	}

	results := make([]*Result, len(samplers))

	var g errgroup.Group
	for i, s := range samplers {
		i, s := i, s
		g.Go(func() error {
			res, err := s.Run()
			results[i] = res
			if err != nil {
				return errors.Wrapf(err, "Sampler %d (%s)", i, s.Name())
			}
			return nil
		})
	}

	return results, g.Wait()
}

// Complete reports whether every result finished all of its iterations
func Complete(results []*Result) bool {
	for _, r := range results {
		if r == nil || !r.Complete {
			return false
		}
	}
	return len(results) > 0
}
