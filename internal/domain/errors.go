package domain

import "errors"

var (
	ErrInvalidMediaType   = errors.New("media type is not allowed")
	ErrPayloadTooLarge    = errors.New("file size exceeds maximum allowed")
	ErrArtifactProcessing = errors.New("artifact processing failed")
	ErrModelUnavailable   = errors.New("vision model unavailable")
	ErrModelMalformed     = errors.New("vision model response malformed")
	ErrDuplicateKey       = errors.New("analysis record already exists")
	ErrUnknownKey         = errors.New("analysis record unknown")
	ErrAlreadyTerminal    = errors.New("analysis record already terminal")
	ErrInvalidTransition  = errors.New("invalid analysis state transition")
	ErrNotFound           = errors.New("not found")
)

// ErrorCode maps a pipeline error to the machine-readable code stored in a
// failed record and returned to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMediaType):
		return "invalid_media_type"
	case errors.Is(err, ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrModelMalformed):
		return "model_response_malformed"
	case errors.Is(err, ErrArtifactProcessing):
		return "artifact_processing_error"
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrDuplicateKey):
		return "invalid_transition"
	case errors.Is(err, ErrAlreadyTerminal):
		return "already_terminal"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownKey):
		return "not_found"
	default:
		return "internal_error"
	}
}
