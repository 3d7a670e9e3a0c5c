package log

import (
	"context"
	"maps"
)

type diagContextKey int

const (
	_nestedKey diagContextKey = iota
	_mappedKey
)

// PushNested returns a context carrying v on top of the nested diagnostic
// stack. Events built with LogEvent.Context report the stack under "ndc".
func PushNested(ctx context.Context, v string) context.Context {
	prev, _ := ctx.Value(_nestedKey).([]string)
	stack := make([]string, len(prev), len(prev)+1)
	copy(stack, prev)
	return context.WithValue(ctx, _nestedKey, append(stack, v))
}

// Nested returns the nested diagnostic stack carried by ctx.
func Nested(ctx context.Context) []string {
	stack, _ := ctx.Value(_nestedKey).([]string)
	return stack
}

// WithMapped returns a context carrying key=value in the mapped diagnostic
// context. Events built with LogEvent.Context report it under "mdc".
func WithMapped(ctx context.Context, key, value string) context.Context {
	prev, _ := ctx.Value(_mappedKey).(map[string]string)
	next := make(map[string]string, len(prev)+1)
	maps.Copy(next, prev)
	next[key] = value
	return context.WithValue(ctx, _mappedKey, next)
}

// Mapped returns the mapped diagnostic context carried by ctx.
func Mapped(ctx context.Context) map[string]string {
	m, _ := ctx.Value(_mappedKey).(map[string]string)
	return m
}
