// Command pdf2text runs the PDF conversion service or performs one-shot
// conversions from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wudi/pdf2text/api"
	"github.com/wudi/pdf2text/config"
	"github.com/wudi/pdf2text/extract"
	"github.com/wudi/pdf2text/observability"
	"github.com/wudi/pdf2text/ocr/tesseract"
	"github.com/wudi/pdf2text/pdf"
	"github.com/wudi/pdf2text/postproc"
	"github.com/wudi/pdf2text/vision"
	"github.com/wudi/pdf2text/vision/gemini"
	"github.com/wudi/pdf2text/vision/runtime"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pdf2text: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "pdf2text",
		Short:         "Convert PDF documents to text and Markdown",
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newConvertCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			standard, model, err := buildExtractors(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return api.NewServer(cfg, standard, model, logger).Run(ctx)
		},
	}
}

func newConvertCmd(configPath *string) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "convert <pdf>",
		Short: "Convert a single PDF and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var extractor extract.Extractor
			switch mode {
			case "standard":
				extractor, err = buildStandard(cfg, logger)
			case "model":
				extractor, err = buildModel(ctx, cfg, logger)
			default:
				return fmt.Errorf("unknown mode %q (want standard or model)", mode)
			}
			if err != nil {
				return err
			}

			res, err := extractor.Extract(ctx, pdf.FromPath(args[0]))
			if err != nil {
				return err
			}
			if res.OCRUsed {
				logger.Info("text was recovered via OCR")
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "standard", "Extraction pipeline: standard or model")
	return cmd
}

// buildExtractors wires both pipelines for the server. The vision model is
// loaded up front so the first v2 request does not pay the load cost.
func buildExtractors(ctx context.Context, cfg config.Config, logger observability.Logger) (extract.Extractor, extract.Extractor, error) {
	standard, err := buildStandard(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	model, err := buildModel(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return standard, model, nil
}

func buildStandard(cfg config.Config, logger observability.Logger) (*extract.Standard, error) {
	hook, err := loadHook(cfg)
	if err != nil {
		return nil, err
	}
	return extract.NewStandard(tesseract.New(), cfg.OCREnabled, cfg.OCRLanguages, logger).WithHook(hook), nil
}

func buildModel(ctx context.Context, cfg config.Config, logger observability.Logger) (*extract.Model, error) {
	hook, err := loadHook(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := buildVisionEngine(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return extract.NewModel(engine, logger).WithHook(hook), nil
}

func buildVisionEngine(ctx context.Context, cfg config.Config, logger observability.Logger) (vision.Engine, error) {
	switch cfg.VisionProvider {
	case config.ProviderRuntime:
		client := runtime.New(cfg.RuntimeURL, cfg.Model, logger)
		if err := client.Load(ctx); err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGemini:
		return gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.VisionProvider)
	}
}

func loadHook(cfg config.Config) (*postproc.Hook, error) {
	return postproc.LoadHook(postproc.NewEngine(), cfg.PostScript)
}
