package main

import (
	"os"

	"hiremate-backend/internal/shared/telemetry"
)

func main() {
	if err := Execute(); err != nil {
		telemetry.Error("reconciler.failed", map[string]any{"error": err})
		os.Exit(1)
	}
}
