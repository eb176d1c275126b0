package converter

import (
	"context"
	"fmt"
	"sync"
)

// JobResult is the outcome of one request of a RunAll call.
type JobResult struct {
	Index   int
	Request Request
	Result  *Result
	Err     error
}

// RunAll runs reqs with at most parallel batches in flight and returns one
// result per request, in request order. Two requests that resolve to the same
// posting file would overwrite each other, so every request after the first
// one for a path fails without running.
func (c *Converter) RunAll(ctx context.Context, reqs []Request, parallel int) []JobResult {
	if parallel < 1 {
		parallel = 1
	}
	out := make([]JobResult, len(reqs))
	owner := make(map[string]int, len(reqs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)
	for i, req := range reqs {
		out[i] = JobResult{Index: i, Request: req}
		if req.FromDocuments {
			out[i].Err = fmt.Errorf("job %d: stored documents cannot be generated in a batch run", i+1)
			continue
		}
		if !req.DryRun {
			path := c.files.OutputPath(req.OutputPath, req.CompanyCode)
			if first, dup := owner[path]; dup {
				out[i].Err = fmt.Errorf("job %d: output %s is already written by job %d", i+1, path, first+1)
				continue
			}
			owner[path] = i
		}

		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				out[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()
			out[i].Result, out[i].Err = c.Run(ctx, req)
		}(i, req)
	}
	wg.Wait()
	return out
}
