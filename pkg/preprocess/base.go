// Package preprocess implements the volume preprocessing utilities:
// rigid alignment, resampling onto a reference grid, centre crop/pad and
// resampling to a target spacing.
//
// Every utility follows the same contract. The caller sets a reference and
// (where needed) a moving image, calls ExecuteProcessing, and then reads
// either TransformedImage or Issues. ExecuteProcessing never panics and never
// returns an error: every failure, including post-condition violations found
// by AssertCorrectness, is recorded as an Issue. An empty issue list is the
// only success signal.
package preprocess

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"medproio/pkg/volume"
)

// Processor is the contract shared by all preprocessing utilities.
type Processor interface {
	SetReferenceImage(img *volume.Image) error
	SetMovingImage(img *volume.Image) error

	// ExecuteProcessing runs the operation, recording failures as issues.
	ExecuteProcessing()

	// AssertCorrectness checks the post-condition of the last produced image.
	AssertCorrectness() error

	TransformedImage() *volume.Image
	Issues() []Issue
}

// Option configures a processor at construction time.
type Option func(*base)

// WithLogger routes processing logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// base carries the state every processor needs: inputs, output, issues.
type base struct {
	name   string
	logger *slog.Logger

	reference   *volume.Image
	moving      *volume.Image
	transformed *volume.Image
	issues      []Issue
	runID       string
}

func newBase(name string, opts []Option) base {
	b := base{name: name, logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func checkImage(img *volume.Image) error {
	if err := img.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrTypeConstraint, err)
	}
	return nil
}

// SetReferenceImage sets the image that defines the target geometry.
func (b *base) SetReferenceImage(img *volume.Image) error {
	if err := checkImage(img); err != nil {
		return fmt.Errorf("reference image: %w", err)
	}
	b.reference = img
	return nil
}

// SetMovingImage sets the image that is transformed.
func (b *base) SetMovingImage(img *volume.Image) error {
	if err := checkImage(img); err != nil {
		return fmt.Errorf("moving image: %w", err)
	}
	b.moving = img
	return nil
}

// ReferenceImage returns the current reference image, or nil.
func (b *base) ReferenceImage() *volume.Image { return b.reference }

// MovingImage returns the current moving image, or nil.
func (b *base) MovingImage() *volume.Image { return b.moving }

// TransformedImage returns the result of the last successful run, or nil.
func (b *base) TransformedImage() *volume.Image { return b.transformed }

// Issues returns a copy of the issues recorded by the last run.
func (b *base) Issues() []Issue {
	return append([]Issue(nil), b.issues...)
}

// RunID identifies the last processing attempt in log output.
func (b *base) RunID() string { return b.runID }

// requireImages returns a single ErrMissingImage error naming every
// required input that is unset.
func (b *base) requireImages(reference, moving bool) error {
	missingRef := reference && b.reference == nil
	missingMov := moving && b.moving == nil
	switch {
	case missingRef && missingMov:
		return fmt.Errorf("reference and moving images %w", ErrMissingImage)
	case missingRef:
		return fmt.Errorf("reference image %w", ErrMissingImage)
	case missingMov:
		return fmt.Errorf("moving image %w", ErrMissingImage)
	}
	return nil
}

// execute runs one processing attempt. process produces the candidate
// image; assert checks it once it is stored as the transformed image. Any
// error or panic clears the transformed image and becomes an issue.
func (b *base) execute(process func() (*volume.Image, error), assert func() error) {
	b.issues = nil
	b.transformed = nil
	b.runID = uuid.NewString()
	logger := b.logger.With("component", b.name, "run_id", b.runID)
	logger.Debug("processing started")

	defer func() {
		if r := recover(); r != nil {
			b.transformed = nil
			b.record(logger, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err := process()
	if err != nil {
		b.record(logger, err)
		return
	}
	if out == nil {
		b.record(logger, errors.New("processing produced no image"))
		return
	}

	b.transformed = out
	if err := assert(); err != nil {
		b.transformed = nil
		b.record(logger, err)
		return
	}

	logger.Info("processing finished",
		"size", out.Size(),
		"spacing", out.Spacing(),
		"pixel_type", out.PixelType().String())
}

func (b *base) record(logger *slog.Logger, err error) {
	issue := issueFromError(err)
	b.issues = append(b.issues, issue)
	logger.Warn("processing issue", "kind", issue.Kind.String(), "message", issue.Message)
}

// Result is the outcome of one run: either an image or a non-empty issue list.
type Result struct {
	Image  *volume.Image
	Issues []Issue
}

// OK reports whether the run produced an image without issues.
func (r Result) OK() bool { return len(r.Issues) == 0 && r.Image != nil }

// Err joins the issues into a single error, or returns nil on success.
func (r Result) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	errs := make([]error, len(r.Issues))
	for i, issue := range r.Issues {
		errs[i] = errors.New(issue.Message)
	}
	return errors.Join(errs...)
}

// Run sets the given images on p, executes it and collects the outcome.
// A nil image leaves the processor's current image unchanged. Setter
// failures are returned as precondition issues without executing.
func Run(p Processor, reference, moving *volume.Image) Result {
	if reference != nil {
		if err := p.SetReferenceImage(reference); err != nil {
			return Result{Issues: []Issue{issueFromError(err)}}
		}
	}
	if moving != nil {
		if err := p.SetMovingImage(moving); err != nil {
			return Result{Issues: []Issue{issueFromError(err)}}
		}
	}

	p.ExecuteProcessing()
	issues := p.Issues()
	if len(issues) > 0 {
		return Result{Issues: issues}
	}
	return Result{Image: p.TransformedImage()}
}
