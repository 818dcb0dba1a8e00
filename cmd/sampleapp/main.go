package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sampleapp/internal/app"
	"github.com/dmitrijs2005/sampleapp/internal/app/config"
	"github.com/dmitrijs2005/sampleapp/internal/flagx"
)

func main() {
	ctx := context.Background()
	command, args := flagx.SplitCommand(os.Args[1:], config.GlobalFlags)
	if command == "" || command == "help" {
		app.Usage(os.Stdout)
		return
	}

	cfg := config.LoadConfig()

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	err = a.Run(ctx, command, args)
	_ = a.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
