package format

import (
	"context"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/jmallon/parley/core/token"
	"github.com/jmallon/parley/providers/ai"
	"github.com/jmallon/parley/providers/observability"
)

// LargePayloadTokens is the advisory threshold: a flattened payload whose
// token estimate exceeds it triggers a warning event. Sending still proceeds;
// the provider's own size limits are the real gate.
const LargePayloadTokens = 100_000

// Formatter flattens messages and their attachments into the single text
// payload the provider adapters send. It is read-only with respect to its
// inputs.
type Formatter struct {
	convertHTML   bool
	warnThreshold int
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithHTMLConversion converts text/html attachments to markdown before
// inlining them. Markdown reads the same to the model at a fraction of the
// token cost of raw HTML. Off by default: other attachment types are always
// inlined verbatim.
func WithHTMLConversion() Option {
	return func(f *Formatter) {
		f.convertHTML = true
	}
}

// WithWarnThreshold overrides the advisory token threshold. Values below one
// are ignored.
func WithWarnThreshold(tokens int) Option {
	return func(f *Formatter) {
		if tokens > 0 {
			f.warnThreshold = tokens
		}
	}
}

// New creates a Formatter with the given options applied.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		warnThreshold: LargePayloadTokens,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flatten renders a message plus its attachments into one provider-agnostic
// text payload.
//
// A message without attachments flattens to its content verbatim. With
// attachments, the content is followed by a blank line and one block per
// attachment in order, blocks separated by blank lines: image attachments
// render as "[Image: <name>] - <data>", everything else as
// "[File: <name>]\n<data>".
//
// When the token estimate of the final payload exceeds the advisory
// threshold, a warning is emitted through the context observer; flattening
// still succeeds.
func (f *Formatter) Flatten(ctx context.Context, msg ai.Message) string {
	payload := msg.Content

	if len(msg.Attachments) > 0 {
		blocks := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			blocks = append(blocks, f.renderAttachment(ctx, att))
		}
		payload = payload + "\n\n" + strings.Join(blocks, "\n\n")
	}

	estimated := token.Estimate(payload)

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "message flattened",
			observability.Int(observability.AttrTokensEstimated, estimated),
			observability.Int(observability.AttrRequestAttachmentsCount, len(msg.Attachments)),
		)
		if estimated > f.warnThreshold {
			observer.Warn(ctx, "flattened payload exceeds advisory token threshold",
				observability.Int(observability.AttrTokensEstimated, estimated),
				observability.Int("format.warn_threshold", f.warnThreshold),
			)
		}
	}
	if span := observability.SpanFromContext(ctx); span != nil && estimated > f.warnThreshold {
		span.AddEvent(observability.EventPayloadLarge,
			observability.Int(observability.AttrTokensEstimated, estimated),
		)
	}

	return payload
}

// FlattenAll maps a conversation to the wire messages sent to a provider:
// same roles, flattened content, no attachment fields.
func (f *Formatter) FlattenAll(ctx context.Context, messages []ai.Message) []ai.Message {
	out := make([]ai.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, ai.Message{
			Role:    msg.Role,
			Content: f.Flatten(ctx, msg),
		})
	}
	return out
}

// renderAttachment produces the inline block for one attachment.
func (f *Formatter) renderAttachment(ctx context.Context, att ai.Attachment) string {
	if att.IsImage() {
		return "[Image: " + att.Name + "] - " + att.Data
	}

	data := att.Data
	if f.convertHTML && isHTML(att.MimeType) {
		if markdown, err := htmltomarkdown.ConvertString(data); err == nil {
			data = markdown
		} else if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Debug(ctx, "html attachment conversion failed, inlining verbatim",
				observability.String("attachment.name", att.Name),
				observability.Error(err),
			)
		}
	}

	return "[File: " + att.Name + "]\n" + data
}

func isHTML(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "text/html" || strings.HasPrefix(mimeType, "text/html;")
}
