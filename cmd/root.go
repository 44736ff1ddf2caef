// Package cmd implements the CLI commands for gmail-manager.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/thegrumpylion/gmail-manager/internal/auth"
	"github.com/thegrumpylion/gmail-manager/internal/gmail"
	"github.com/thegrumpylion/gmail-manager/internal/logging"
)

const appName = "gmail-manager"

// Environment variables consulted when the matching flag is not set.
const (
	envConfigDir   = "GMAIL_MANAGER_CONFIG_DIR"
	envCredentials = "GMAIL_MANAGER_CREDENTIALS"
	envToken       = "GMAIL_MANAGER_TOKEN"
	envLogLevel    = "GMAIL_MANAGER_LOG_LEVEL"
	envLogFile     = "GMAIL_MANAGER_LOG_FILE"
	envMetricsAddr = "GMAIL_MANAGER_METRICS_ADDR"
)

var version = "dev"

// SetVersion sets the version string used in the CLI and MCP server.
func SetVersion(v string) {
	version = v
}

// rootOptions holds the resolved global flags shared by every subcommand.
type rootOptions struct {
	configDir       string
	credentialsFile string
	tokenFile       string
	envFile         string
	logLevel        string
	logFile         string

	logger   *slog.Logger
	closeLog func()

	// dialer builds the Gmail dialer for check. Tests replace it.
	dialer func(*auth.Loader) gmail.Dialer
}

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(o *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Gmail MCP server: read unread mail and draft threaded replies",
		Long: `gmail-manager is a Model Context Protocol (MCP) server for Gmail.

It exposes two Gmail tools over stdio:
  get_unread_emails    - list unread messages with sender, subject and snippet
  create_draft_reply   - save a threaded draft reply (never sends)

Setup:
  1. Download OAuth credentials from https://console.cloud.google.com/apis/credentials
  2. Place the file at ~/.config/gmail-manager/credentials.json (or use --credentials)
  3. Authorize once: gmail-manager login
  4. Verify:         gmail-manager check
  5. Serve:          gmail-manager serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configDir, "config-dir", "", "config directory (default: $XDG_CONFIG_HOME/gmail-manager)")
	pf.StringVar(&o.credentialsFile, "credentials", "", "path to Google OAuth credentials.json (default: <config-dir>/credentials.json)")
	pf.StringVar(&o.tokenFile, "token", "", "path to the stored OAuth token (default: <config-dir>/token.json)")
	pf.StringVar(&o.envFile, "env-file", "", "load environment variables from this file before resolving flags")
	pf.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&o.logFile, "log-file", "", "append logs to this file instead of stderr")

	root.AddCommand(
		newServeCmd(o),
		newLoginCmd(o),
		newCheckCmd(o),
		newVersionCmd(),
	)

	return root
}

// resolve loads the env file, applies environment fallbacks for flags the
// user did not set, fills in default paths and sets up logging.
func (o *rootOptions) resolve(cmd *cobra.Command) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", o.envFile, err)
		}
	}

	fromEnv(cmd, "config-dir", envConfigDir, &o.configDir)
	fromEnv(cmd, "credentials", envCredentials, &o.credentialsFile)
	fromEnv(cmd, "token", envToken, &o.tokenFile)
	fromEnv(cmd, "log-level", envLogLevel, &o.logLevel)
	fromEnv(cmd, "log-file", envLogFile, &o.logFile)

	if o.configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("determining config directory: %w", err)
		}
		o.configDir = filepath.Join(base, appName)
	}
	if o.credentialsFile == "" {
		o.credentialsFile = filepath.Join(o.configDir, "credentials.json")
	}
	if o.tokenFile == "" {
		o.tokenFile = filepath.Join(o.configDir, auth.DefaultTokenKey)
	}

	logger, closeLog, err := logging.Setup(o.logLevel, o.logFile)
	if err != nil {
		return err
	}
	o.logger, o.closeLog = logger, closeLog
	return nil
}

// fromEnv copies the environment variable into dst unless the flag was set
// on the command line.
func fromEnv(cmd *cobra.Command, flag, env string, dst *string) {
	if f := cmd.Flag(flag); f != nil && f.Changed {
		return
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}

// newLoader builds the credential loader. The token file's directory backs
// the store and its base name is the key.
func (o *rootOptions) newLoader() *auth.Loader {
	return &auth.Loader{
		CredentialsFile: o.credentialsFile,
		Store:           auth.NewFileStore(filepath.Dir(o.tokenFile)),
		TokenKey:        filepath.Base(o.tokenFile),
		Scopes:          gmail.Scopes,
	}
}

func (o *rootOptions) newDialer(l *auth.Loader) gmail.Dialer {
	if o.dialer != nil {
		return o.dialer(l)
	}
	return gmail.ServiceDialer(l)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}
}

// run executes root and closes the log file afterwards. Cobra skips post-run
// hooks when RunE fails, so the close cannot live there.
func (o *rootOptions) run(root *cobra.Command) error {
	defer o.close()
	return root.Execute()
}

// close releases the log file opened by resolve. It is safe to call twice.
func (o *rootOptions) close() {
	if o.closeLog != nil {
		o.closeLog()
		o.closeLog = nil
	}
}

// Execute runs the root command.
func Execute() {
	o := &rootOptions{}
	if err := o.run(newRootCmd(o)); err != nil {
		os.Exit(1)
	}
}
