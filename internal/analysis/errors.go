package analysis

import "github.com/rotisserie/eris"

var (
	// ErrInvalidConfiguration is returned before any oracle call when the
	// run parameters cannot produce a valid analysis.
	ErrInvalidConfiguration = eris.New("analysis: invalid configuration")

	// ErrEmptyQuery is returned when the question is blank.
	ErrEmptyQuery = eris.New("analysis: query is empty")

	// ErrEmptySelection is returned by Synthesize when no selected page lies
	// within the document.
	ErrEmptySelection = eris.New("analysis: no valid pages selected")
)
