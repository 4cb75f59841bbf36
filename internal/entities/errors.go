package entities

import "errors"

// Error kinds shared across the scrape → extract → store pipeline.
// Callers wrap them with %w and match with errors.Is.
var (
	ErrNetwork         = errors.New("network error")
	ErrParse           = errors.New("parse error")
	ErrExtractionArity = errors.New("extraction arity error")
	ErrDataShape       = errors.New("data shape error")
	ErrStorage         = errors.New("storage error")
	ErrNotFound        = errors.New("observation not found")
)
