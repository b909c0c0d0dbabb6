package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"voidpanel/internal/config"
	"voidpanel/internal/panelcfg"
	"voidpanel/internal/setupwizard"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configPath    string
		port          string
		force         bool
		passwordStdin bool
		logPath       string
	)

	rootCmd := &cobra.Command{
		Use:   "voidpanel-setup",
		Short: "Create the VoidPanel configuration",
		Long: `voidpanel-setup writes the panel password hash and listen port.

Run it once before starting voidpanel. Use --password-stdin to supply the
password from a pipe when no terminal is available.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var prompt setupwizard.Prompter
			opts := setupwizard.Options{Port: port, Force: force}
			if passwordStdin {
				opts.PasswordFrom = cmd.InOrStdin()
			} else {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return errors.New("stdin is not a terminal; use --password-stdin")
				}
				prompt = setupwizard.SurveyPrompter{}
			}

			transcript := io.Discard
			if logPath != "" {
				f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("open log: %w", err)
				}
				defer f.Close()
				transcript = f
			}

			w := setupwizard.New(panelcfg.New(configPath), prompt, cmd.OutOrStdout(), transcript, opts)
			_, err := w.Run(cmd.Context())
			if errors.Is(err, setupwizard.ErrAborted) {
				return nil
			}
			return err
		},
	}

	defaultPath := config.FromEnv().ConfigPath
	rootCmd.Flags().StringVar(&configPath, "config", defaultPath, "path of the panel config file")
	rootCmd.Flags().StringVar(&port, "port", "", "listen port (default 417, asked when interactive)")
	rootCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config without asking")
	rootCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	rootCmd.Flags().StringVar(&logPath, "log", "", "append a transcript of the run to this file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("voidpanel-setup %s (commit: %s)\n", version, commit)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
