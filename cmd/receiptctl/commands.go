package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/receiptkit/internal/config"
	"github.com/danmuck/receiptkit/internal/logging"
	"github.com/danmuck/receiptkit/internal/observability"
	"github.com/danmuck/receiptkit/internal/receipt"
	"github.com/danmuck/receiptkit/internal/server"
	"github.com/rs/zerolog"
)

// loadConfig resolves the config file, then applies command-line flags on
// top of it.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if flags.config != "" {
		var err error
		if cfg, err = config.Load(flags.config); err != nil {
			return config.Config{}, err
		}
	}

	if flags.format != "" {
		format, err := receipt.ParseFormat(flags.format)
		if err != nil {
			return config.Config{}, err
		}
		cfg.OutputFormat = format
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.strict {
		cfg.Strict = true
	}
	if flags.skipUnknown {
		cfg.SkipUnknown = true
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func setupLogging(cfg config.Config) (zerolog.Logger, error) {
	logging.ConfigureRuntime()
	if cfg.LogLevel != "" {
		if err := logging.SetLevel(cfg.LogLevel); err != nil {
			return zerolog.Logger{}, err
		}
	}
	return observability.InitLogger("receiptctl"), nil
}

func newParser(cfg config.Config, logger *zerolog.Logger) *receipt.Parser {
	return &receipt.Parser{
		Strict:      cfg.Strict,
		SkipUnknown: cfg.SkipUnknown,
		Logger:      logger,
	}
}

// readInput loads the receipt named by args, falling back to the configured
// receipt_path. "-" reads stdin.
func readInput(cfg config.Config, stdin io.Reader, args []string) ([]byte, error) {
	path := cfg.ReceiptPath
	if len(args) > 0 {
		path = args[0]
	}
	switch path {
	case "":
		return nil, fmt.Errorf("receipt file required (argument or receipt_path)")
	case "-":
		return receipt.ReadLimited(stdin, cfg.MaxReceiptBytes)
	default:
		return receipt.ReadFile(path, cfg.MaxReceiptBytes)
	}
}

// cmdDecode handles the decode command.
func cmdDecode(out io.Writer, stdin io.Reader, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	data, err := readInput(cfg, stdin, args)
	if err != nil {
		return err
	}

	r, err := newParser(cfg, &logger).Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", receipt.ErrorKind(err), err)
	}
	return receipt.RenderReceipt(out, r, cfg.OutputFormat)
}

// cmdAttrs handles the attrs command.
func cmdAttrs(out io.Writer, stdin io.Reader, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	data, err := readInput(cfg, stdin, args)
	if err != nil {
		return err
	}

	payload, err := receipt.Payload(data)
	if err != nil {
		return fmt.Errorf("%s: %w", receipt.ErrorKind(err), err)
	}
	attrs, skipped, err := newParser(cfg, &logger).Attributes(payload)
	if err != nil {
		return fmt.Errorf("%s: %w", receipt.ErrorKind(err), err)
	}
	if skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("some attributes could not be decoded")
	}
	return receipt.RenderAttributes(out, attrs, cfg.OutputFormat)
}

// cmdServe handles the serve command.
func cmdServe(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		CorsOrigins:     cfg.Server.CorsOrigins,
		MaxReceiptBytes: cfg.MaxReceiptBytes,
		Metrics:         cfg.Server.Metrics,
		Parser:          *newParser(cfg, &logger),
		Logger:          &logger,
	})
	return srv.Serve(ctx)
}

// cmdConfig handles config init and config check.
func cmdConfig(out io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: config <init|check> <path>")
	}
	action, path := args[0], args[1]
	switch action {
	case "init":
		if err := config.WriteTemplate(path, flags.overwrite); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	case "check", "validate":
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s ok (format=%s strict=%t addr=%s)\n",
			path, cfg.OutputFormat, cfg.Strict, cfg.Server.Addr)
	default:
		return fmt.Errorf("unknown config action: %s", action)
	}
	return nil
}
