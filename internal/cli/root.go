package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"jobwatch-go/internal/app"
	"jobwatch-go/internal/config"
	"jobwatch-go/internal/model"
)

// AppLoader builds the application for one command invocation.
type AppLoader func(ctx context.Context, out io.Writer) (*app.App, error)

func LoadApp(ctx context.Context, out io.Writer) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return app.NewBuilder(&cfg, app.WithStdout(out)).Build(ctx)
}

func NewRootCmd(load AppLoader) *cobra.Command {
	root := &cobra.Command{
		Use:   "jobwatch",
		Short: "Watch a job board and report newly posted listings",
		Long: `jobwatch fetches the configured job board, compares it with the last
stored snapshot and notifies about listings that were not there before.

The first run only records a baseline. Run the server binary to check on a
schedule; use these commands for one-off checks and inspection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCheckCmd(load), newLatestCmd(load), newHistoryCmd(load))
	return root
}

func newCheckCmd(load AppLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single fetch-compare-notify cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			application, err := load(cmd.Context(), out)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.CheckService.RunCycle(cmd.Context())
			fmt.Fprintf(out, "outcome: %s\n", result.Outcome)
			if result.Snapshot != nil {
				fmt.Fprintf(out, "snapshot: %s (%d listings)\n", result.Snapshot.Tag, result.Snapshot.Listings.Len())
			}
			if result.FetchErr != nil {
				fmt.Fprintf(out, "reason: %v\n", result.FetchErr)
			}
			return err
		},
	}
}

func newLatestCmd(load AppLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the most recent snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			application, err := load(cmd.Context(), out)
			if err != nil {
				return err
			}
			defer application.Close()

			snap, err := application.CheckService.Latest(cmd.Context())
			if err != nil {
				return err
			}
			if snap == nil {
				fmt.Fprintln(out, "no snapshot yet")
				return nil
			}
			printSnapshot(out, *snap)
			return nil
		},
	}
}

func newHistoryCmd(load AppLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List stored snapshots, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			application, err := load(cmd.Context(), out)
			if err != nil {
				return err
			}
			defer application.Close()

			snapshots, err := application.CheckService.History(cmd.Context())
			if err != nil {
				return err
			}
			for _, snap := range snapshots {
				fmt.Fprintf(out, "%s  %3d listings\n", snap.Tag, snap.Listings.Len())
			}
			return nil
		},
	}
}

func printSnapshot(out io.Writer, snap model.Snapshot) {
	fmt.Fprintf(out, "%s (%d listings)\n", snap.Tag, snap.Listings.Len())
	if snap.Listings.Len() > 0 {
		fmt.Fprintf(out, "  %s\n", strings.Join(snap.Listings.Strings(), "\n  "))
	}
}
