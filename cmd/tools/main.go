package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			sugar.Fatalf("init-db: %v", err)
		}
	case "validate-form":
		if err := runValidateForm(os.Args[2:]); err != nil {
			sugar.Fatalf("validate-form: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: formkit-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  init-db         Create PostgreSQL feature tables from a field directory")
	logger.Info("  validate-form   Validate a form specification document")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
