package hfstol

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// LookupAll looks up many strings with a pool of workers. Each worker owns a
// Clone of t, so symbols added while tokenizing stay local to it. The result
// holds the analyses of inputs[i] at index i.
//
// Input which cannot be tokenized and infinitely ambiguous input yield the
// analyses found, if any, rather than failing the batch. The first other
// error, or cancellation of ctx, stops all workers.
func LookupAll(ctx context.Context, t *Transducer, inputs []string, config LookupConfig) ([][]Analysis, error) {
	workers := max(config.Workers, 1)
	results := make([][]Analysis, len(inputs))
	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range inputs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	opts := config.Options()
	for w := 0; w < min(workers, max(len(inputs), 1)); w++ {
		worker := t.Clone()
		g.Go(func() error {
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				analyses, err := worker.lookupOne(inputs[i], config.CheckCycles, opts)
				if err != nil {
					return err
				}
				results[i] = analyses
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	tracer().Debugf("batch lookup of %d inputs with %d workers", len(inputs), workers)
	return results, nil
}

func (t *Transducer) lookupOne(s string, checked bool, opts []LookupOption) ([]Analysis, error) {
	input, err := t.alpha.Tokenize(s, t.handlesUnknown())
	if errors.Is(err, ErrOutsideSigma) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if !checked {
		return t.analyses(t.Lookup(input, opts...)), nil
	}
	paths, err := t.LookupChecked(input, opts...)
	if err != nil && !errors.Is(err, ErrInfinitelyAmbiguous) {
		return nil, err
	}
	return t.analyses(paths), nil
}
