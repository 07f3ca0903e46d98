package main

import (
	"context"

	"github.com/RomirSinghla-Redweek/automation-wyndham/cmd/wyndham-cli/commands"
	"github.com/RomirSinghla-Redweek/automation-wyndham/lib/serviceutil"
	"github.com/RomirSinghla-Redweek/automation-wyndham/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	tel, err := telemetry.SetupFromEnv(ctx, "wyndham-cli")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
