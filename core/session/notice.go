package session

import (
	"errors"

	"github.com/jmallon/parley/providers/ai"
)

// Notice kinds beyond the classified provider kinds.
const (
	// KindConfiguration marks a submission blocked locally because no API key
	// is configured for the selected provider.
	KindConfiguration = "configuration"
)

// Remediation hints attached to the provider error kinds that have a known
// user-side fix.
const (
	hintPayloadTooLarge = "Request too large - try reducing image sizes or removing some files"
	hintTokenLimit      = "Token limit exceeded - try reducing message length or file sizes"
)

// Notice is the user-visible rendering of a failed turn. It is surfaced to
// the caller instead of being appended to the conversation transcript.
type Notice struct {
	Kind    string
	Message string
	Hint    string
}

// noticeFromError converts a submission failure into its user-visible form.
func noticeFromError(err error) *Notice {
	var apiErr *ai.APIError
	if errors.As(err, &apiErr) {
		notice := &Notice{
			Kind:    string(apiErr.Kind),
			Message: apiErr.Message,
		}
		if notice.Message == "" {
			notice.Message = "Unknown API error"
		}
		switch apiErr.Kind {
		case ai.KindPayloadTooLarge:
			notice.Hint = hintPayloadTooLarge
		case ai.KindTokenLimit:
			notice.Hint = hintTokenLimit
		}
		return notice
	}

	return &Notice{
		Kind:    string(ai.KindProvider),
		Message: err.Error(),
	}
}
