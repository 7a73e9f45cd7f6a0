package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"renovation-quoter/server"
	"renovation-quoter/services"
)

const transcriptPrompt = "Enter client transcript: "

type quoteOptions struct {
	file       string
	output     string
	quiet      bool
	offline    bool
	location   string
	hourlyRate float64
	margin     float64
}

func newQuoteCmd() *cobra.Command {
	opts := &quoteOptions{}
	cmd := &cobra.Command{
		Use:   "quote [transcript]",
		Short: "Generate a quote from a client transcript",
		Long: `Generate a quote from a client transcript.

The transcript is read from the arguments, from --file, or from stdin
("-" or piped input). With none of these on a terminal, it is prompted for.
The quote is written to the JSON output file (and PostgreSQL when enabled)
and printed as a report.`,
		Example: `  quoter quote "Remove the old tiles and lay new ones, the bathroom is 6m²"
  quoter quote --file transcript.txt --location Paris
  echo "install a vanity" | quoter quote --offline -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "read the transcript from a file")
	f.StringVarP(&opts.output, "output", "o", "", "JSON output path (default $OUTPUT_PATH)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the quote report")
	f.BoolVar(&opts.offline, "offline", false, "skip remote inference, use keyword and pattern matching only")
	f.StringVar(&opts.location, "location", "", "location used for the VAT rate (default $QUOTE_LOCATION)")
	f.Float64Var(&opts.hourlyRate, "hourly-rate", 0, "labor rate per hour (default $QUOTE_HOURLY_RATE)")
	f.Float64Var(&opts.margin, "margin", 0, "margin as a fraction, e.g. 0.15 (default $QUOTE_MARGIN)")
	return cmd
}

func runQuote(cmd *cobra.Command, args []string, opts *quoteOptions) error {
	f := cmd.Flags()
	if f.Changed("location") {
		cfg.Location = opts.location
	}
	if f.Changed("hourly-rate") {
		cfg.HourlyRate = opts.hourlyRate
	}
	if f.Changed("margin") {
		cfg.Margin = opts.margin
	}
	if f.Changed("output") {
		cfg.OutputPath = opts.output
	}
	if opts.offline {
		cfg.ForceOffline()
	}
	if err := validateConfig(); err != nil {
		return err
	}

	transcript, err := readTranscript(args, opts.file, cmd.InOrStdin(), isTerminal(os.Stdin), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := services.ValidateTranscript(transcript); err != nil {
		logger.Error("[main] %v", err)
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sinks, err := openSinks(ctx, cfg, cfg.OutputPath, logger)
	if err != nil {
		return err
	}
	defer sinks.Close()

	quote := a.assembler.Assemble(ctx, transcript)

	if err := sinks.Write(quote); err != nil {
		logger.Error("[main] Failed to write quote: %v", err)
		return err
	}

	if !opts.quiet {
		services.NewReportPrinter(cmd.OutOrStdout()).Print(quote, a.assembler.Pricing())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Output written to %s successfully.\n", cfg.OutputPath)
	return nil
}

// readTranscript resolves the transcript source: file, arguments, then stdin.
// An interactive stdin is prompted for a single line.
func readTranscript(args []string, file string, stdin io.Reader, interactive bool, prompt io.Writer) (string, error) {
	if file != "" {
		if len(args) > 0 {
			return "", errors.New("pass the transcript either as an argument or with --file, not both")
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		return string(content), nil
	}

	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}

	if interactive && len(args) == 0 {
		fmt.Fprint(prompt, transcriptPrompt)
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	content, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(content), nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func newServeCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quoting API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if offline {
				cfg.ForceOffline()
			}
			if err := validateConfig(); err != nil {
				return err
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sinks, err := openSinks(ctx, cfg, "", logger)
			if err != nil {
				return err
			}
			defer sinks.Close()

			srv, err := server.New(a.assembler, a.catalog, sinks, logger, server.Config{
				Addr:           cfg.HTTPAddr,
				AllowedOrigins: cfg.CORSAllowedOrigins,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "skip remote inference, use keyword and pattern matching only")
	return cmd
}

func newTasksCmd() *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the task vocabulary with its catalog prices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogPath = catalogPath
			}
			cfg.ForceOffline()

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), services.DescribeTasks(a.catalog), a.catalog.Locations())
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog override file (default $CATALOG_PATH)")
	return cmd
}

func printTasks(w io.Writer, infos []services.TaskInfo, locations []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tMATERIAL\tBASE HOURS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", info.Task, info.MaterialCost, info.BaseLaborHours)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nLocations with a VAT rate: %s\n", strings.Join(locations, ", "))
}
