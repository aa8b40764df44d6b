package auth

import "context"

// DefaultAttachmentAttribute names the attachment read when none is configured.
const DefaultAttachmentAttribute = "attachment"

type attachmentsKey struct{}

// WithAttachment returns a context carrying value as the attachment named
// attribute. Earlier attachments with other names are preserved.
func WithAttachment(ctx context.Context, attribute string, value string) context.Context {
	prev, _ := ctx.Value(attachmentsKey{}).(map[string]string)
	next := make(map[string]string, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	next[attribute] = value
	return context.WithValue(ctx, attachmentsKey{}, next)
}

// AttachmentFromContext returns the attachment named attribute, if any.
func AttachmentFromContext(ctx context.Context, attribute string) (string, bool) {
	m, _ := ctx.Value(attachmentsKey{}).(map[string]string)
	v, ok := m[attribute]
	return v, ok
}
