package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/httpd"
	"github.com/indigo-web/httpd/config"
	"github.com/indigo-web/httpd/internal/logging"
)

func main() {
	configPath := flag.String("c", "", "path to the configuration file (required)")
	outputPath := flag.String("o", "", "append the log to the file instead of stdout")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "the -c flag is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *outputPath); err != nil {
		fmt.Fprintln(os.Stderr, "httpd:", err)
		os.Exit(1)
	}
}

func run(configPath, outputPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if outputPath != "" {
		file, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}

		defer file.Close()
		out = file
	}

	app := httpd.New(cfg).Logger(logging.New(out, cfg.OutputLevel, outputPath == ""))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = app.Stop()
	}()

	return app.Serve()
}
