package core

import (
	"errors"
	"fmt"
)

var (
	ErrSwapchainBooting   = errors.New("swapchain resized or recreated, booting")
	ErrWindowClosed       = errors.New("window closed")
	ErrNoSuitableDevice   = errors.New("no physical device meets the requirements")
	ErrNoMemoryType       = errors.New("no suitable memory type")
	ErrNoSurfaceFormat    = errors.New("preferred surface format not available")
	ErrPipelineIncomplete = errors.New("pipeline builder is missing required state")
	ErrInvalidShader      = errors.New("invalid SPIR-V blob")
	ErrShaderRejected     = errors.New("shaders rejected, previous set restored")
	ErrUnknown            = errors.New("unknown")
)

// ErrorKind tags a RenderError with how the frame loop must react to it.
type ErrorKind uint8

const (
	// KindFatalSetup is an environment mismatch: missing memory type,
	// rejected object creation, absent device feature.
	KindFatalSetup ErrorKind = iota
	// KindStale means the presentation surface changed under us and the
	// swapchain has to be rebuilt. Never fatal.
	KindStale
	// KindTimeout is a synchronization wait that ran past its bound.
	KindTimeout
	// KindTransfer is a rejected staging submission.
	KindTransfer
)

func (k ErrorKind) String() string {
	switch k {
	case KindFatalSetup:
		return "fatal"
	case KindStale:
		return "stale"
	case KindTimeout:
		return "timeout"
	case KindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

type RenderError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func Fatal(op string, err error) error {
	return &RenderError{Kind: KindFatalSetup, Op: op, Err: err}
}

func Stale(op string, err error) error {
	return &RenderError{Kind: KindStale, Op: op, Err: err}
}

func Timeout(op string, err error) error {
	return &RenderError{Kind: KindTimeout, Op: op, Err: err}
}

func TransferFailed(op string, err error) error {
	return &RenderError{Kind: KindTransfer, Op: op, Err: err}
}

// IsFatal reports whether err must terminate the application. Untagged
// errors are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind != KindStale
	}
	return true
}

func IsStale(err error) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Kind == KindStale
}

// KindOf returns the tag of err, or false when err is not a RenderError.
func KindOf(err error) (ErrorKind, bool) {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}
