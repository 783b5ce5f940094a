package kafka

import (
    "context"

    "github.com/segmentio/kafka-go"
)

// ConsumerHook defines lifecycle hooks around message handling.
// Returning a non-nil error from BeforeHandle skips the handler; the message
// is then treated as failed.
type ConsumerHook interface {
    BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
    AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
    OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    return ctx, km, data, nil
}

func (NoopHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

func (NoopHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

// HookFuncs is an adapter that implements ConsumerHook from plain functions.
// Nil functions are no-ops.
type HookFuncs struct {
    Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
    After  func(context.Context, string, kafka.Message, []byte, error)
    Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
    if h.Before == nil {
        return ctx, km, data, nil
    }
    return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    if h.After != nil {
        h.After(ctx, topic, km, data, err)
    }
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
    if h.Err != nil {
        h.Err(ctx, topic, km, data, err)
    }
}

type ctxKey string

// CtxRequestID holds the correlation id read from message headers.
const CtxRequestID ctxKey = "kafka_request_id"

// Header returns the value of the first header named key.
func Header(msg kafka.Message, key string) string {
    for _, h := range msg.Headers {
        if h.Key == key && len(h.Value) > 0 {
            return string(h.Value)
        }
    }
    return ""
}

// WithRequestID stores id in the context when it is non-empty.
func WithRequestID(ctx context.Context, id string) context.Context {
    if id == "" {
        return ctx
    }
    return context.WithValue(ctx, CtxRequestID, id)
}

// RequestID returns the correlation id stored by WithRequestID.
func RequestID(ctx context.Context) string {
    s, _ := ctx.Value(CtxRequestID).(string)
    return s
}

// RequestIDHook copies the request_id header into the handler context.
func RequestIDHook() ConsumerHook {
    return HookFuncs{
        Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
            return WithRequestID(ctx, Header(km, "request_id")), km, data, nil
        },
    }
}
