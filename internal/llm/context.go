package llm

import "context"

type callKey struct{}

// callInfo labels a request for the event log.
type callInfo struct {
	purpose string
	thread  string
}

func infoFrom(ctx context.Context) callInfo {
	info, _ := ctx.Value(callKey{}).(callInfo)
	return info
}

// WithPurpose labels LLM calls made with ctx ("lesson", "quiz", ...).
func WithPurpose(ctx context.Context, purpose string) context.Context {
	info := infoFrom(ctx)
	info.purpose = purpose
	return context.WithValue(ctx, callKey{}, info)
}

// WithThread ties LLM calls made with ctx to a chat thread.
func WithThread(ctx context.Context, threadID string) context.Context {
	info := infoFrom(ctx)
	info.thread = threadID
	return context.WithValue(ctx, callKey{}, info)
}

// PurposeFrom returns the purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p := infoFrom(ctx).purpose; p != "" {
		return p
	}
	return "unknown"
}

// ThreadFrom returns the thread label, or "".
func ThreadFrom(ctx context.Context) string {
	return infoFrom(ctx).thread
}
