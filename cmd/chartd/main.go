package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/filmoteca/chartfetch/internal/app"
	"github.com/filmoteca/chartfetch/internal/config"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("chartd", flag.ExitOnError)
	cfgPath := flags.String("config", "", "path to a YAML config file (optional)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	return a.Run(ctx)
}
