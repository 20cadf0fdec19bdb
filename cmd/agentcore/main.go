package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
)

func main() {
	flags := &rootFlags{}
	rootCmd := newRootCmd(flags)

	correlationID := uuid.NewString()
	ctx := context.WithValue(context.Background(), correlationIDKey{}, correlationID)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// correlationIDKey is the context key the CLI stamps onto every command's
// context so subcommands can surface one correlation ID per invocation
// without parsing it back out of cobra flags.
type correlationIDKey struct{}

func correlationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return v
	}
	return ""
}
