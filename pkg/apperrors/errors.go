package apperrors

import "errors"

var (
	ErrNoCommand          = errors.New("no command provided")
	ErrRefreshFailed      = errors.New("lexicon refresh failed")
	ErrStoreUnavailable   = errors.New("record store unavailable")
	ErrParserUnavailable  = errors.New("language parser unavailable")
	ErrNoSnapshot         = errors.New("no lexicon snapshot published")
	ErrUnsupportedStore   = errors.New("unsupported store type")
	ErrInvalidSynonymFile = errors.New("invalid synonym file")
)
