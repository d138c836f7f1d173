package model

import "fmt"

// Batch is a contiguous, inclusive range of page numbers sent to the oracle
// in a single request.
type Batch struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pages in the batch.
func (b Batch) Len() int {
	if b.End < b.Start {
		return 0
	}
	return b.End - b.Start + 1
}

// Contains reports whether page n lies within the batch.
func (b Batch) Contains(n int) bool {
	return n >= b.Start && n <= b.End
}

func (b Batch) String() string {
	return fmt.Sprintf("%d-%d", b.Start, b.End)
}
