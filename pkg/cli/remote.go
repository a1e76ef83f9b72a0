package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"profile-extract-go/pkg/cli/client"
	"profile-extract-go/pkg/cli/results"
	"profile-extract-go/pkg/export"
	"profile-extract-go/pkg/models"
)

type remoteRunFlags struct {
	file        string
	mode        string
	concurrency int
	timeout     time.Duration
	rate        float64
	format      string
	output      string
	poll        time.Duration
	quiet       bool
}

func (a *App) newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Run batches on a profile-extract API server (cli.base_url)",
	}

	cmd.AddCommand(a.newRemoteRunCmd(), a.newRemoteListCmd(), a.newRemoteCancelCmd())
	return cmd
}

func (a *App) newRemoteRunCmd() *cobra.Command {
	var flags remoteRunFlags

	cmd := &cobra.Command{
		Use:   "run [URL...]",
		Short: "Create a batch on the server, run it and print the result",
		Example: `  profile-extract remote run --file urls.txt --format csv --output results.csv
  profile-extract remote run https://github.com/someone https://x.com/someone`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRemote(cmd, args, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "upload URLs from a text or CSV file")
	f.StringVar(&flags.mode, "mode", "", "batch mode: interactive or bulk")
	f.IntVarP(&flags.concurrency, "concurrency", "c", 0, "items processed at once (server default when 0)")
	f.DurationVar(&flags.timeout, "timeout", 0, "per-item deadline (server default when 0)")
	f.Float64Var(&flags.rate, "rate", 0, "maximum item starts per second (server default when 0)")
	f.StringVar(&flags.format, "format", formatTable, "output format: table, csv, json, schema or text")
	f.StringVar(&flags.output, "output", "", "write output to this file instead of stdout")
	f.DurationVar(&flags.poll, "poll", 500*time.Millisecond, "status poll interval")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "do not print progress")

	return cmd
}

func (a *App) runRemote(cmd *cobra.Command, args []string, flags remoteRunFlags) error {
	if flags.format != formatTable {
		if _, err := export.ParseFormat(flags.format); err != nil {
			return err
		}
	}
	if flags.file == "" && len(args) == 0 {
		return fmt.Errorf("no URLs given: pass them as arguments or with --file")
	}

	api, err := a.getClient()
	if err != nil {
		return err
	}
	log := a.componentLog("remote")
	ctx := cmd.Context()

	mode := models.Mode(flags.mode)
	if mode == "" {
		mode = models.ModeInteractive
		if flags.file != "" || len(args) > models.InteractiveMaxItems {
			mode = models.ModeBulk
		}
	}

	snap, err := a.createRemoteBatch(ctx, api, mode, flags.file, args)
	if err != nil {
		return err
	}
	log.Info().Str("batch_id", snap.ID.String()).Int("items", len(snap.Items)).Msg("remote batch created")

	_, err = api.RunBatch(ctx, snap.ID, client.RunOptions{
		MaxConcurrent:    flags.concurrency,
		PerItemTimeoutMS: int(flags.timeout / time.Millisecond),
		RateLimit:        flags.rate,
	})
	if err != nil {
		return fmt.Errorf("failed to start batch: %w", err)
	}

	// Ctrl+C asks the server to cancel; the result is still collected.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-sigCtx.Done():
			if ctx.Err() == nil {
				if _, err := api.CancelBatch(context.WithoutCancel(ctx), snap.ID); err != nil {
					log.Warn().Err(err).Str("batch_id", snap.ID.String()).Msg("cancel request failed")
				}
			}
		case <-finished:
		}
	}()

	lastDone := -1
	errOut := cmd.ErrOrStderr()
	res, err := api.WaitBatch(ctx, snap.ID, flags.poll, func(s models.BatchSnapshot) {
		done := s.CompletedCount + s.FailedCount
		if flags.quiet || done == lastDone {
			return
		}
		lastDone = done
		fmt.Fprintf(errOut, "%3.0f%%  %d/%d done, %d failed\n", s.OverallProgress, done, len(s.Items), s.FailedCount)
	})
	if err != nil {
		return fmt.Errorf("failed waiting for batch: %w", err)
	}

	if flags.format == formatTable {
		return writeResult(cmd.OutOrStdout(), formatTable, flags.output, res)
	}

	data, err := api.Export(ctx, snap.ID, flags.format)
	if err != nil {
		return fmt.Errorf("failed to export batch: %w", err)
	}
	if flags.output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(flags.output, data, 0644)
}

func (a *App) createRemoteBatch(ctx context.Context, api *client.Client, mode models.Mode, file string, urls []string) (*models.BatchSnapshot, error) {
	if file == "" {
		snap, err := api.CreateBatch(ctx, mode, urls)
		if err != nil {
			return nil, fmt.Errorf("failed to create batch: %w", err)
		}
		return snap, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	snap, err := api.UploadBatch(ctx, mode, filepath.Base(file), f)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", file, err)
	}
	for _, u := range urls {
		if _, err := api.AddItem(ctx, snap.ID, u); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", u, err)
		}
	}
	if len(urls) > 0 {
		return api.GetBatch(ctx, snap.ID)
	}
	return snap, nil
}

func (a *App) newRemoteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List batches on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.getClient()
			if err != nil {
				return err
			}
			batches, err := api.ListBatches(cmd.Context())
			if err != nil {
				return fmt.Errorf("error fetching batches: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), results.FormatBatchList(batches))
			return nil
		},
	}
}

func (a *App) newRemoteCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel BATCH_ID",
		Short: "Cancel a running batch on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid batch ID: %w", err)
			}
			api, err := a.getClient()
			if err != nil {
				return err
			}
			snap, err := api.CancelBatch(cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Printf("Cancel requested for batch %s (%s)\n", results.ShortenID(snap.ID), snap.Status)
			return nil
		},
	}
}
