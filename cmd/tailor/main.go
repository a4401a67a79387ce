// Package main is the command line front end for tailoring a resume to a job
// description.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kirillkom/resume-tailor/internal/bootstrap"
	"github.com/kirillkom/resume-tailor/internal/config"
	"github.com/kirillkom/resume-tailor/internal/observability/logging"
)

const serviceName = "tailor-cli"

var (
	assumeYes bool
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:           "tailor",
	Short:         "Tailor a resume to a job description",
	Long:          "tailor analyzes a resume against a job description, weaves selected missing keywords into it and exports the result as PDF or DOCX.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger := logging.NewLogger(os.Stderr, serviceName, level)

	return bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:   serviceName,
		Logger:    logger,
		Confirmer: &promptConfirmer{in: os.Stdin, out: os.Stderr, assumeYes: &assumeYes},
	})
}
