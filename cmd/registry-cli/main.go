package main

import (
	"context"
	"log/slog"
	"tgpc-backend/cmd/registry-cli/commands"
	"tgpc-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)
	err := telemetry.SetupFromEnv(context.Background(), "registry-cli")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	commands.ExecuteContext(context.Background())
}
