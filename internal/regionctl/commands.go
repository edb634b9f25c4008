// Package regionctl implements the operator CLI for a multi-region
// deployment.
package regionctl

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edvin/multiregion/internal/config"
	"github.com/edvin/multiregion/internal/db"
	"github.com/edvin/multiregion/internal/region"
	"github.com/edvin/multiregion/internal/replay"
)

// App holds the dependencies of the commands. Zero fields fall back to the
// real implementations.
type App struct {
	LoadConfig       func() (*config.Config, error)
	RunMigrations    func(databaseURL string, tlsConfig *tls.Config) error
	MigrationVersion func(databaseURL string, tlsConfig *tls.Config) (int64, error)
}

func (a *App) loadConfig() (*config.Config, error) {
	load := a.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate("regionctl"); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (a *App) topology(regionOverride string) (*config.Config, *region.Topology, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if regionOverride != "" {
		cfg.Region = strings.ToLower(regionOverride)
	}

	topo, err := cfg.Topology()
	if err != nil {
		return nil, nil, err
	}
	return cfg, topo, nil
}

// regionalURL derives the database URL an instance in regionOverride (or
// FLY_REGION when empty) would use.
func (a *App) regionalURL(regionOverride string) (string, *region.Topology, error) {
	cfg, topo, err := a.topology(regionOverride)
	if err != nil {
		return "", nil, err
	}
	u, err := topo.DatabaseURL(cfg.DatabaseURL)
	if err != nil {
		return "", nil, err
	}
	return u, topo, nil
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "regionctl",
		Short: "Inspect and operate a multi-region deployment",
		Long: `regionctl inspects how a multi-region deployment routes database traffic.

It reads the same environment as the server (DATABASE_URL, PRIMARY_REGION,
FLY_REGION, TOPOLOGY_FILE) to derive regional connection strings, and talks
to running instances over HTTP to show their status and replay decisions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDatabaseURLCommand(app),
		newStatusCommand(),
		newProbeCommand(),
		newMigrateCommand(app),
	)
	return root
}

func newDatabaseURLCommand(app *App) *cobra.Command {
	var regionFlag string
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "database-url",
		Short: "Print the database URL an instance in a region connects to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, topo, err := app.regionalURL(regionFlag)
			if err != nil {
				return err
			}
			if !showSecrets {
				u = region.Redact(u)
			}
			role := "replica"
			if topo.IsPrimary() {
				role = "primary"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", role, u)
			return nil
		},
	}
	cmd.Flags().StringVar(&regionFlag, "region", "", "Region to derive the URL for (default FLY_REGION)")
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the password instead of redacting it")
	return cmd
}

func newStatusCommand() *cobra.Command {
	var apiURL string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the region status reported by a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			st, err := NewClient(apiURL).Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			fmt.Fprintf(out, "region:          %s\n", st.Region)
			fmt.Fprintf(out, "primary region:  %s\n", st.PrimaryRegion)
			fmt.Fprintf(out, "is primary:      %t\n", st.IsPrimary)
			fmt.Fprintf(out, "database host:   %s\n", st.DatabaseHost)
			fmt.Fprintf(out, "database:        %s\n", st.Database)
			fmt.Fprintf(out, "in recovery:     %t\n", st.Replica.InRecovery)
			fmt.Fprintf(out, "replication lag: %.3fs\n", st.Replica.LagSeconds)
			if st.Replica.Error != "" {
				fmt.Fprintf(out, "replica error:   %s\n", st.Replica.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "Base URL of the instance")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw status as JSON")
	return cmd
}

func newProbeCommand() *cobra.Command {
	var apiURL, method, path, body string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send one request and report whether the instance replays it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			var reqBody io.Reader
			if body != "" {
				reqBody = strings.NewReader(body)
			}

			res, err := NewClient(apiURL).Probe(ctx, strings.ToUpper(method), path, reqBody)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Directive == nil {
				fmt.Fprintf(out, "served locally (status %d)\n", res.StatusCode)
				return nil
			}
			fmt.Fprintf(out, "replay to region %s (status %d, %s: %s)\n",
				res.Directive.Region, res.StatusCode, replay.HeaderName, res.Directive)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "Base URL of the instance")
	cmd.Flags().StringVarP(&method, "method", "X", http.MethodPost, "HTTP method")
	cmd.Flags().StringVar(&path, "path", "/api/v1/entries", "Request path")
	cmd.Flags().StringVarP(&body, "data", "d", "", "Request body")
	return cmd
}

func newMigrateCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations through the primary",
		Long: `Apply the embedded migrations. Replicas are read-only, so migrations only
run when FLY_REGION is the primary region (or unset). Use --force to run
from another region; the migration then goes to DATABASE_URL as configured
instead of the regional replica.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, topo, err := app.topology("")
			if err != nil {
				return err
			}
			if !topo.IsPrimary() && !force {
				return fmt.Errorf("refusing to migrate from region %s: primary is %s (use --force)", topo.Current, topo.Primary)
			}

			// In the primary region this is DATABASE_URL unchanged; elsewhere
			// the regional URL is a read-only replica, so use the base URL.
			u := cfg.DatabaseURL
			tlsConfig, err := cfg.DatabaseTLS()
			if err != nil {
				return err
			}

			run := app.RunMigrations
			if run == nil {
				run = db.RunMigrations
			}
			if err := run(u, tlsConfig); err != nil {
				return err
			}

			version := app.MigrationVersion
			if version == nil {
				version = db.MigrationVersion
			}
			v, err := version(u, tlsConfig)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s to version %d\n", region.Redact(u), v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Migrate even when not in the primary region")
	return cmd
}
