package app

import "errors"

// Job validation errors, returned by Job.Validate.
var (
	ErrNoSubject          = errors.New("no subject: provide a subject or explicit phrases")
	ErrInvalidTarget      = errors.New("invalid target: must be positive")
	ErrInvalidPerQuery    = errors.New("invalid per-query limit: must be positive")
	ErrInvalidQueryDelay  = errors.New("invalid query delay: must be non-negative")
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrNoURLs             = errors.New("urls provider needs at least one url")
	ErrInvalidPolicy      = errors.New("invalid policy")
	ErrInvalidStretchSize = errors.New("stretch policy needs a positive width and height")
	ErrNegativeSize       = errors.New("pad size and min side must be non-negative")
	ErrInvalidTolerance   = errors.New("aspect tolerance must be between 0 and 1")
	ErrInvalidSizeRange   = errors.New("min size exceeds max size")
	ErrInvalidBackground  = errors.New("invalid background color")
	ErrJobNotFound        = errors.New("job not found")
	ErrNoPrefix           = errors.New("no prefix: provide a prefix, subject or job name")
	ErrInvalidPrefix      = errors.New("invalid prefix")
)
