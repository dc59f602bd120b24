package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	appcli "github.com/jinford/research-genie/internal/app/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := appcli.NewApp(appcli.NewCommands(os.Stdout))
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
