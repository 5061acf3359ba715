package main

import (
	"fmt"
	"os"
	"time"

	"github.com/LeeDigitalWorks/sharefs/cmd"

	"github.com/getsentry/sentry-go"
)

func main() {
	err := sentry.Init(sentry.ClientOptions{
		SampleRate:       0.1,
		EnableTracing:    true,
		TracesSampleRate: 0.1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentry.Init: %v", err)
	}

	if err := cmd.Execute(); err != nil {
		sentry.CaptureException(err)
		// os.Exit skips deferred calls, so flush explicitly
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
	sentry.Flush(2 * time.Second)
}
