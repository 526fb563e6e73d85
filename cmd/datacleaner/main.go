// cmd/datacleaner/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool

	// Shell flags
	metricsAddr string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "datacleaner",
	Short: "Data cleaning workbench",
	Long: `datacleaner loads CSV and Excel files or database tables, profiles
them, and records cleaning operations as a replayable pipeline. Pipelines
can be saved as named sessions that survive restarts.

Run without arguments to start the interactive shell.`,
	SilenceUsage: true,
	RunE:         runShell,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive shell",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted session state",
	Args:  cobra.NoArgs,
	RunE:  oneShot("status"),
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	RunE:  oneShot("sessions"),
}

var loginCmd = &cobra.Command{
	Use:   "login [user] [secret]",
	Short: "Sign in and keep the session for later runs",
	Args:  cobra.ExactArgs(2),
	RunE:  oneShot("login"),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE:  oneShot("logout"),
}

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Toggle dark mode",
	Args:  cobra.NoArgs,
	RunE:  oneShot("theme"),
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the shell runs")
	shellCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the shell runs")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(themeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if metricsAddr != "" {
		stop := a.serveMetrics(metricsAddr)
		defer stop()
	}

	if err := a.newShell().Run(ctx, cmd.InOrStdin()); err != nil {
		return err
	}
	return a.saveState(context.Background())
}

// oneShot runs a single shell command against the persisted state
func oneShot(name string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.newShell().ExecuteArgs(ctx, append([]string{name}, args...)); err != nil {
			return err
		}
		return a.saveState(ctx)
	}
}
