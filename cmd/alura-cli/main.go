package main

import (
	"context"
	"errors"
	"os"

	"aluraget/cmd/alura-cli/cmd"
	"aluraget/lib/serviceutil"
	"aluraget/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "alura-cli")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(context.Background())
	}

	cmd.Execute(ctx)
}
