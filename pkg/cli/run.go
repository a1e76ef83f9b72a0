package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/cli/results"
	"profile-extract-go/pkg/cli/tui"
	"profile-extract-go/pkg/config"
	"profile-extract-go/pkg/export"
	"profile-extract-go/pkg/ingest"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/services"
)

// formatTable is the default human-readable output; every other format is
// an export.Format.
const formatTable = "table"

type runFlags struct {
	file        string
	mode        string
	concurrency int
	timeout     time.Duration
	rate        float64
	successProb float64
	seed        uint64
	format      string
	output      string
	tui         bool
	quiet       bool
}

func (a *App) newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [URL...]",
		Short: "Process URLs locally and print or export the profiles",
		Long: `Runs every URL through the fetch, analyze and extract stages and reports the outcome.

URLs come from the arguments, from --file (one URL per line, or a CSV with a "url" column), or both.
Interactive mode accepts up to 5 URLs; bulk mode up to 1000. Without --mode, bulk is picked when
--file is given or when there are more URLs than interactive mode allows.

Ctrl+C stops new items from starting; items already running finish or time out.`,
		Example: `  profile-extract run https://github.com/someone
  profile-extract run --file urls.csv --concurrency 8 --rate 5 --format csv --output results.csv
  profile-extract run --success-prob 1 --seed 42 --format schema https://www.linkedin.com/in/someone`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLocal(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "read URLs from a text or CSV file")
	f.StringVar(&flags.mode, "mode", "", "batch mode: interactive or bulk")
	f.IntVarP(&flags.concurrency, "concurrency", "c", 0, "items processed at once (default batch.max_concurrent)")
	f.DurationVar(&flags.timeout, "timeout", 0, "per-item deadline, e.g. 20s (default batch.per_item_timeout_ms)")
	f.Float64Var(&flags.rate, "rate", 0, "maximum item starts per second, 0 = unlimited")
	f.Float64Var(&flags.successProb, "success-prob", 0, "probability that an item succeeds (default processor.success_probability)")
	f.Uint64Var(&flags.seed, "seed", 0, "random seed for reproducible runs, 0 = random")
	f.StringVar(&flags.format, "format", formatTable, "output format: table, csv, json, schema or text")
	f.StringVar(&flags.output, "output", "", "write output to this file instead of stdout")
	f.BoolVar(&flags.tui, "tui", false, "show live progress in the terminal UI")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "do not print per-item progress")

	return cmd
}

// runConfig applies the flags that were set on top of a copy of the loaded
// config.
func (a *App) runConfig(cmd *cobra.Command, flags runFlags) (*config.Config, error) {
	cfg := *a.cfg
	f := cmd.Flags()
	if f.Changed("concurrency") {
		cfg.Batch.MaxConcurrent = flags.concurrency
	}
	if f.Changed("timeout") {
		cfg.Batch.PerItemTimeoutMS = int(flags.timeout / time.Millisecond)
	}
	if f.Changed("rate") {
		cfg.Batch.RateLimit = flags.rate
	}
	if f.Changed("success-prob") {
		cfg.Processor.SuccessProbability = flags.successProb
	}
	if f.Changed("seed") {
		cfg.Processor.Seed = flags.seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run settings: %w", err)
	}
	return &cfg, nil
}

// resolveMode picks the batch mode from the flag, or from the input shape.
func resolveMode(flag string, fromFile bool, count int, limits services.Limits) (models.Mode, error) {
	if flag != "" {
		mode := models.Mode(flag)
		if !mode.IsValid() {
			return "", fmt.Errorf("%w: %q", services.ErrInvalidMode, flag)
		}
		return mode, nil
	}
	if fromFile || count > limits.For(models.ModeInteractive) {
		return models.ModeBulk, nil
	}
	return models.ModeInteractive, nil
}

// collectInputs merges argument URLs with the URLs read from file.
func collectInputs(args []string, file string, limit int) ([]string, error) {
	urls := append([]string(nil), args...)
	if file == "" {
		return urls, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	fromFile, err := ingest.ParseURLList(f, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return append(urls, fromFile...), nil
}

func (a *App) runLocal(cmd *cobra.Command, args []string, flags runFlags) error {
	if flags.format != formatTable {
		if _, err := export.ParseFormat(flags.format); err != nil {
			return err
		}
	}

	cfg, err := a.runConfig(cmd, flags)
	if err != nil {
		return err
	}
	limits := services.LimitsFrom(cfg)

	urls, err := collectInputs(args, flags.file, limits.For(models.ModeBulk))
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: pass them as arguments or with --file")
	}

	mode, err := resolveMode(flags.mode, flags.file != "", len(urls), limits)
	if err != nil {
		return err
	}
	b, err := batch.FromInputs(mode, limits.For(mode), urls)
	if err != nil {
		return err
	}

	log := a.componentLog("run")
	proc, err := services.NewProcessor(cfg, log)
	if err != nil {
		return err
	}
	coord := batch.NewCoordinator(proc, log)
	opts := services.RunDefaults(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("batch_id", b.ID().String()).
		Str("mode", string(mode)).
		Int("items", b.Len()).
		Msg("local run requested")

	var res *models.BatchResult
	if flags.tui {
		res, err = tui.RunBatch(ctx, coord, b, opts)
		if err != nil {
			return err
		}
		if res == nil || flags.output == "" {
			return nil
		}
	} else {
		if !flags.quiet {
			opts.Observer = progressPrinter(cmd.ErrOrStderr(), b.Len())
		}
		res, err = coord.Run(ctx, b, opts)
		if err != nil {
			return err
		}
	}

	return writeResult(cmd.OutOrStdout(), flags.format, flags.output, res)
}

// progressPrinter prints one line per finished item.
func progressPrinter(w io.Writer, total int) batch.Observer {
	width := len(fmt.Sprint(total))
	return func(ev batch.Event) {
		if ev.Type != batch.EventItemFinished {
			return
		}
		done := ev.Snapshot.CompletedCount + ev.Snapshot.FailedCount
		mark, detail := "✓", results.GetName(ev.Item)
		if ev.Item.Status == models.ItemFailed {
			mark, detail = "✗", ev.Item.Error
		}
		fmt.Fprintf(w, "[%*d/%d] %3.0f%% %s %s  %s\n",
			width, done, total,
			ev.Snapshot.OverallProgress,
			mark,
			results.TruncateURL(ev.Item.Input, 60),
			detail,
		)
	}
}

// writeResult renders res in format to path, or to stdout when path is empty.
func writeResult(stdout io.Writer, format, path string, res *models.BatchResult) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == formatTable {
		_, err := fmt.Fprint(w, results.FormatTableOutput(res))
		return err
	}

	ef, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if err := export.Write(w, ef, res); err != nil {
		return fmt.Errorf("failed to write %s output: %w", format, err)
	}
	return nil
}
