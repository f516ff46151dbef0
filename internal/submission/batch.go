package submission

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunInBatches вызывает fn для каждого элемента пачками по batchSize.
// Внутри пачки вызовы идут параллельно, следующая пачка стартует только после завершения предыдущей.
// Результаты возвращаются в порядке items независимо от порядка завершения.
// batchSize <= 0 означает одну пачку на все элементы.
func RunInBatches[T, R any](ctx context.Context, items []T, batchSize int, fn func(ctx context.Context, index int, item T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if batchSize <= 0 {
		batchSize = len(items)
	}

	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				results[i] = fn(ctx, i, items[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	return results
}
