package agentlog

import (
	"context"
	"testing"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	var l Logger = NoopLogger{}
	ctx := context.Background()
	l.Debug(ctx, "msg", F("k", "v"))
	l.Info(ctx, "msg")
	l.Warn(ctx, "msg")
	l.Error(ctx, "msg")
}

func TestZerologLoggerImplementsInterface(t *testing.T) {
	var l Logger = New(LevelDebug, false, []string{"secret"})
	ctx := context.Background()
	l.Info(ctx, "hello", F("secret", "shh"), F("visible", 42))
}
