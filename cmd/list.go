package cmd

import (
	"errors"
	"fmt"

	"github.com/egeskov/localenv/internal/config"
	"github.com/egeskov/localenv/internal/docker"
	"github.com/egeskov/localenv/internal/registry"
	"github.com/egeskov/localenv/internal/status"
	"github.com/egeskov/localenv/internal/ui"
	"github.com/egeskov/localenv/pkg/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// errDockerNotRunning is the single notice shown when the runtime probe fails
var errDockerNotRunning = errors.New("Docker is not running...")

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all environments and their status",
	Long: `Lists every environment with its status and URL.

An environment is UP when at least one of its containers is running and DOWN
when none are. ERROR means Docker could not be queried for that environment;
the cause is logged to stderr.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

type runtimeClient interface {
	status.Runtime
	Close() error
}

// Replaced in tests
var newRuntime = func(cfg *config.GlobalConfig) (runtimeClient, error) {
	return docker.NewClient(cfg.DockerHost)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}
	logging.InitForCLI(logging.ParseLevel(cfg.Level()), cmd.ErrOrStderr())

	dir, err := cfg.ResolvedEnvironmentsDir()
	if err != nil {
		return err
	}
	logging.Debug("list", "reading environments from %s", dir)

	rt, err := newRuntime(cfg)
	if err != nil {
		logging.Debug("list", "docker client: %v", err)
		return errDockerNotRunning
	}
	defer rt.Close()

	agg := status.NewAggregator(rt, registry.New(dir),
		status.WithQueryTimeout(cfg.Timeout()),
		status.WithConcurrency(cfg.Workers()),
		status.WithLogger(logging.Logger()),
	)

	statuses, err := agg.Aggregate(cmd.Context())
	if errors.Is(err, status.ErrRuntimeUnavailable) {
		logging.Debug("list", "%v", err)
		return errDockerNotRunning
	}
	if err != nil {
		return fmt.Errorf("could not read environments in %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	if len(statuses) == 0 {
		fmt.Fprintf(out, "%s No environments found in %s\n", color.YellowString("⚠"), dir)
		return nil
	}

	return ui.RenderTable(out, statuses)
}
