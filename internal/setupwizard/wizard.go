// Package setupwizard creates the panel configuration file, interactively or
// from a password piped on stdin.
package setupwizard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"voidpanel/internal/auth/hash"
	"voidpanel/internal/panelcfg"
)

// maxPasswordAttempts bounds the empty-password retry loop.
const maxPasswordAttempts = 5

var (
	ErrAborted       = errors.New("setup aborted")
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrNoPassword    = errors.New("no password set")
	// ErrExists is returned in non-interactive mode when a config is present
	// and overwriting was not forced.
	ErrExists = errors.New("configuration file already exists")
)

// Prompter asks the operator for input.
type Prompter interface {
	Confirm(message string, def bool) (bool, error)
	Password(message string) (string, error)
	Input(message, def string) (string, error)
}

type Options struct {
	// Port is the --port flag value; empty means ask, or the default when
	// not interactive.
	Port string
	// Force overwrites an existing file without asking.
	Force bool
	// PasswordFrom, when set, supplies the password and disables prompts.
	PasswordFrom io.Reader
}

type Wizard struct {
	store  *panelcfg.Store
	prompt Prompter
	out    io.Writer
	logger *log.Logger
	opts   Options
}

// New returns a wizard writing to store. transcript receives a plain log of
// the run; it may be io.Discard.
func New(store *panelcfg.Store, prompt Prompter, out, transcript io.Writer, opts Options) *Wizard {
	return &Wizard{
		store:  store,
		prompt: prompt,
		out:    out,
		logger: log.New(transcript, "[SETUP] ", log.LstdFlags),
		opts:   opts,
	}
}

func (w *Wizard) interactive() bool { return w.opts.PasswordFrom == nil && w.prompt != nil }

// Run collects the password and port, then saves the config atomically.
func (w *Wizard) Run(ctx context.Context) (panelcfg.Config, error) {
	w.logger.Printf("Starting setup for %s", w.store.Path())
	color.New(color.FgCyan, color.Bold).Fprintln(w.out, "--- VoidPanel Setup ---")
	fmt.Fprintln(w.out, "This will configure the panel password and port.")

	if err := w.checkExisting(); err != nil {
		w.logger.Printf("Stopped: %v", err)
		return panelcfg.Config{}, err
	}

	password, err := w.password()
	if err != nil {
		w.logger.Printf("Password step failed: %v", err)
		return panelcfg.Config{}, err
	}
	port, err := w.port()
	if err != nil {
		return panelcfg.Config{}, err
	}

	cfg, err := w.write(ctx, password, port)
	if err != nil {
		w.logger.Printf("Save failed: %v", err)
		color.New(color.FgRed).Fprintf(w.out, "Error saving configuration file: %v\n", err)
		return panelcfg.Config{}, err
	}
	w.logger.Printf("Configuration saved, port %d", cfg.Port)
	w.summary(cfg)
	return cfg, nil
}

func (w *Wizard) checkExisting() error {
	if !w.store.Exists() || w.opts.Force {
		return nil
	}
	fmt.Fprintf(w.out, "Configuration file '%s' already exists.\n", w.store.Path())
	if !w.interactive() {
		return fmt.Errorf("%w: %s (use --force to replace it)", ErrExists, w.store.Path())
	}
	ok, err := w.prompt.Confirm("Overwrite existing configuration?", false)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w.out, "Setup aborted.")
		return ErrAborted
	}
	return nil
}

func (w *Wizard) password() (string, error) {
	if w.opts.PasswordFrom != nil {
		return ReadPassword(w.opts.PasswordFrom)
	}
	for i := 0; i < maxPasswordAttempts; i++ {
		pw, err := w.prompt.Password("Enter a password for the panel:")
		if err != nil {
			return "", err
		}
		if pw == "" {
			color.New(color.FgYellow).Fprintln(w.out, "Password cannot be empty. Please try again.")
			continue
		}
		confirm, err := w.prompt.Password("Confirm the password:")
		if err != nil {
			return "", err
		}
		if confirm != pw {
			color.New(color.FgYellow).Fprintln(w.out, "Passwords do not match. Please try again.")
			continue
		}
		return pw, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNoPassword, maxPasswordAttempts)
}

func (w *Wizard) port() (int, error) {
	raw := w.opts.Port
	if raw == "" && w.interactive() {
		in, err := w.prompt.Input(fmt.Sprintf("Enter port for the panel (default: %d):", panelcfg.DefaultPort), "")
		if err != nil {
			return 0, err
		}
		raw = in
	}
	port, ok := ParsePort(raw)
	if !ok {
		color.New(color.FgYellow).Fprintf(w.out, "Invalid port number. Using default port: %d\n", panelcfg.DefaultPort)
		w.logger.Printf("Invalid port %q, using %d", raw, port)
	}
	return port, nil
}

func (w *Wizard) write(ctx context.Context, password string, port int) (panelcfg.Config, error) {
	bar := progressbar.NewOptions(2,
		progressbar.OptionSetWriter(w.out),
		progressbar.OptionSetDescription("Writing configuration"),
		progressbar.OptionClearOnFinish(),
	)
	h, err := hash.HashPassword(password)
	if err != nil {
		return panelcfg.Config{}, err
	}
	_ = bar.Add(1)
	cfg := panelcfg.Config{PasswordHash: h, Port: port}
	if err := w.store.Save(ctx, cfg); err != nil {
		return panelcfg.Config{}, err
	}
	_ = bar.Add(1)
	_ = bar.Finish()
	return cfg, nil
}

func (w *Wizard) summary(cfg panelcfg.Config) {
	ok := color.New(color.FgGreen)
	ok.Fprintf(w.out, "Configuration saved to %s\n", w.store.Path())
	fmt.Fprintln(w.out, "Panel password hash generated.")
	fmt.Fprintf(w.out, "Panel will run on port %d\n", cfg.Port)
	ok.Fprintln(w.out, "\nSetup complete!")
	fmt.Fprintln(w.out, "You can now start the panel with: voidpanel")
	fmt.Fprintf(w.out, "Access it via your server's IP address on port %d (e.g., http://your_server_ip:%d)\n", cfg.Port, cfg.Port)
	fmt.Fprintln(w.out, "\nRemember to open the specified port in your firewall if necessary.")
}

// ParsePort accepts a decimal port in 1..65535. Empty input is the default
// and valid; anything else unusable yields the default and false.
func ParsePort(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return panelcfg.DefaultPort, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return panelcfg.DefaultPort, false
	}
	return n, true
}

// ReadPassword takes the first line of r, without the line ending.
func ReadPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", ErrEmptyPassword
	}
	return line, nil
}
