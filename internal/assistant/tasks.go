package assistant

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// defaultConcurrency is the ceiling of context-gathering tasks executing in
// parallel within one turn.
const defaultConcurrency = 5

// Task is one unit of concurrent context-gathering work, constructed fresh
// per question. Names must be unique within a single invocation.
type Task struct {
	Name string
	Run  func(ctx context.Context) (string, error)
}

// runAll executes every task under a bounded worker pool and blocks until
// all have settled, returning a mapping from task name to produced text.
//
// Semantics:
//   - All tasks are submitted atomically; none observes partial results of
//     siblings.
//   - The join is a hard barrier: the caller never proceeds with a subset.
//   - All-or-nothing: the first task error cancels the group context,
//     remaining results are discarded, and that error is returned.
//   - Zero tasks returns an empty mapping immediately without a pool.
func runAll(ctx context.Context, tasks []Task, limit int) (map[string]string, error) {
	if len(tasks) == 0 {
		return map[string]string{}, nil
	}
	if limit <= 0 {
		limit = defaultConcurrency
	}

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.Name]; dup {
			return nil, fmt.Errorf("duplicate task name %q", t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	// Results are indexed by submission position so completion order is
	// irrelevant and no mutex is needed.
	results := make([]string, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, t := range tasks {
		g.Go(func() error {
			out, err := t.Run(gctx)
			if err != nil {
				return fmt.Errorf("task %s: %w", t.Name, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(tasks))
	for i, t := range tasks {
		byName[t.Name] = results[i]
	}
	return byName, nil
}
