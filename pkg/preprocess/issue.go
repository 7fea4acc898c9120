package preprocess

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeConstraint is returned by the image setters for anything that is
	// not a valid 3D volume handle.
	ErrTypeConstraint = errors.New("image must be a valid 3D volume")

	// ErrMissingImage reports that a required input was never set.
	ErrMissingImage = errors.New("not set")

	// ErrBinaryMask reports a label image where intensities are required.
	ErrBinaryMask = errors.New("binary mask alignment is not permitted")

	// ErrAssertion reports a post-condition violated by the produced image.
	ErrAssertion = errors.New("assertion failed")
)

// IssueKind separates issues by the stage that raised them.
type IssueKind int

const (
	// PreconditionIssue: the inputs did not allow processing to start.
	PreconditionIssue IssueKind = iota
	// AssertionIssue: processing finished but the output failed its post-condition.
	AssertionIssue
	// UnexpectedIssue: anything else, including recovered panics.
	UnexpectedIssue
)

func (k IssueKind) String() string {
	switch k {
	case PreconditionIssue:
		return "precondition"
	case AssertionIssue:
		return "assertion"
	default:
		return "unexpected"
	}
}

// Issue is one human-readable problem recorded during a processing attempt.
type Issue struct {
	Kind    IssueKind
	Message string
}

func (i Issue) String() string { return i.Message }

// issueFromError classifies err by the sentinel it wraps.
func issueFromError(err error) Issue {
	switch {
	case errors.Is(err, ErrAssertion):
		return Issue{Kind: AssertionIssue, Message: err.Error()}
	case errors.Is(err, ErrMissingImage), errors.Is(err, ErrBinaryMask), errors.Is(err, ErrTypeConstraint):
		return Issue{Kind: PreconditionIssue, Message: err.Error()}
	default:
		return Issue{Kind: UnexpectedIssue, Message: fmt.Sprintf("unexpected error: %v", err)}
	}
}
