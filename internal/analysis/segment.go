package analysis

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/pagefinder/internal/model"
)

// Segment splits pages 1..n into ceil(n/size) contiguous batches of at most
// size pages. n == 0 yields no batches.
func Segment(n, size int) ([]model.Batch, error) {
	if size <= 0 {
		return nil, eris.Wrapf(ErrInvalidConfiguration, "batch size %d must be positive", size)
	}
	if n < 0 {
		return nil, eris.Wrapf(ErrInvalidConfiguration, "page count %d must not be negative", n)
	}

	batches := make([]model.Batch, 0, (n+size-1)/size)
	for start := 1; start <= n; start += size {
		batches = append(batches, model.Batch{Start: start, End: min(start+size-1, n)})
	}
	return batches, nil
}
