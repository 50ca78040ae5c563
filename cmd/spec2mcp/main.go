package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mdwit/spec2mcp/internal/config"
	"github.com/mdwit/spec2mcp/internal/document"
	"github.com/mdwit/spec2mcp/internal/generator"
	"github.com/mdwit/spec2mcp/internal/parser"
)

var version = "dev"

type flags struct {
	cfgFile      string
	methods      string
	selectionKey string
	output       string
	format       string
	title        string
	baseURL      string
	strict       bool
	expandRefs   bool
	maxDepth     int
	workers      int
	validate     bool
	logLevel     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "spec2mcp [source]",
		Short: "Build MCP method descriptors from an OpenAPI specification",
		Long: `spec2mcp resolves the operations listed in a methods file against an OpenAPI
description and prints, for each of them, parameter and response schemas
together with a synthesized example request.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	fl := rootCmd.Flags()
	fl.StringVarP(&f.cfgFile, "config", "c", "", "config file (spec2mcp.json or spec2mcp.yaml)")
	fl.StringVarP(&f.methods, "methods", "m", "", "methods file with the selection list")
	fl.StringVar(&f.selectionKey, "selection-key", "mcp_methods", "key of the selection list in the methods file")
	fl.StringVarP(&f.output, "output", "o", "", "output file, or directory for the llms format (default stdout, ./llms)")
	fl.StringVarP(&f.format, "format", "f", config.FormatText, "output format (text, json, yaml, llms)")
	fl.StringVarP(&f.title, "title", "t", "", "API title for the llms format")
	fl.StringVarP(&f.baseURL, "base-url", "b", "", "base URL for examples")
	fl.BoolVar(&f.strict, "strict", false, "fail on unknown paths and unresolved references")
	fl.BoolVar(&f.expandRefs, "expand-refs", false, "follow nested $ref when synthesizing examples")
	fl.IntVar(&f.maxDepth, "max-depth", 32, "maximum nesting depth of synthesized examples")
	fl.IntVar(&f.workers, "workers", 1, "number of selection entries built concurrently")
	fl.BoolVar(&f.validate, "validate", false, "validate the OpenAPI description before building")
	fl.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return rootCmd
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	cfg, err := loadConfig(cmd, f, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)
	log := logrus.NewEntry(logger)

	log.WithField("source", cfg.Source).Info("loading API description")
	doc, err := document.Load(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to load API description: %w", err)
	}
	selection, err := document.Load(cfg.Methods)
	if err != nil {
		return fmt.Errorf("failed to load methods: %w", err)
	}

	if cfg.ValidateSpec {
		if err := parser.Validate(cmd.Context(), cfg.Source); err != nil {
			if cfg.Strict {
				return err
			}
			log.WithError(err).Warn("OpenAPI validation failed, continuing")
		}
	}

	mode := parser.Lenient
	if cfg.Strict {
		mode = parser.Strict
	}
	methods, err := parser.Build(doc, selection, parser.Options{
		Mode:         mode,
		SelectionKey: cfg.SelectionKey,
		ExpandRefs:   cfg.ExpandRefs,
		MaxDepth:     cfg.MaxDepth,
		Workers:      cfg.Workers,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("failed to build method descriptors: %w", err)
	}
	log.Infof("built %d method descriptors", len(methods))

	gen := generator.New(cfg, generator.InfoFromDocument(doc), methods)
	if cfg.Format == config.FormatLLMS {
		if err := gen.Generate(); err != nil {
			return fmt.Errorf("failed to generate: %w", err)
		}
		log.Infof("generated llms.txt in %s", cfg.OutputDir())
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if cfg.Output != "" {
		file, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer file.Close()
		w = file
	}
	return gen.Render(w)
}

func loadConfig(cmd *cobra.Command, f *flags, args []string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if f.cfgFile != "" {
		cfg, err = config.LoadFromFile(f.cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// CLI флаги переопределяют конфиг
	if len(args) > 0 {
		cfg.Source = args[0]
	}
	changed := cmd.Flags().Changed
	if changed("methods") {
		cfg.Methods = f.methods
	}
	if changed("selection-key") {
		cfg.SelectionKey = f.selectionKey
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("title") {
		cfg.Title = f.title
	}
	if changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if changed("strict") {
		cfg.Strict = f.strict
	}
	if changed("expand-refs") {
		cfg.ExpandRefs = f.expandRefs
	}
	if changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("validate") {
		cfg.ValidateSpec = f.validate
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	return cfg, nil
}
