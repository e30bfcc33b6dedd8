// cmd/unibrowse/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath  string
	metricsAddr string
	logLevel    string
}

func (o *rootOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "path to a config file (default: configs/config.yaml lookup)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address, e.g. :9090")
	fs.StringVar(&o.logLevel, "log-level", "", "override logging.level")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "unibrowse",
		Short: "Browse universities and programmes from the directory API",
		Long: `unibrowse lists, filters, searches and pages through the university
programme directory.

  courses       interactive programme listing (search, filters, pages)
  universities  the institution list, filtered locally
  programme     one programme with its course structure
  university    one institution with a programme preview`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		coursesCmd(opts),
		universitiesCmd(opts),
		programmeCmd(opts),
		universityCmd(opts),
	)
	return rootCmd
}

// withApp builds the app and the optional metrics server around run.
func withApp(cmd *cobra.Command, opts *rootOptions, run func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	addr := opts.metricsAddr
	if addr == "" {
		addr = a.cfg.Observability.MetricsAddr
	}
	if addr != "" {
		srv := newMetricsServer(addr, a)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer shutdownServer(srv, a.zapLog)
		a.zapLog.Info("Metrics server listening", zap.String("addr", addr))
	}

	return run(ctx, a)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
