package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"finstress/internal/app"
	"finstress/internal/auth"
	"finstress/internal/config"
	"finstress/internal/storage"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const usage = `Usage: finctl [-db <db_path>] <command> [arguments]

Commands:
  login    -user <username> [-password <password>]
  logout
  budget   <amount>
  add      -desc <text> -amount <value> -category <id> [-date YYYY-MM-DD]
  ls
  rm       [-yes] <id>
  clear    [-yes]
  summary
  report   [-o <file>]
  ask      <question>
`

var errNotLoggedIn = errors.New("not logged in: run 'finctl login' first")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command works with.
type env struct {
	ctx     context.Context
	cfg     config.Application
	db      *storage.DB
	gate    *auth.Gate
	stdin   io.Reader
	stdout  io.Writer
	tracker *app.Tracker
}

type command struct {
	run          func(e *env, args []string) error
	needsSession bool
}

var commands = map[string]command{
	"login":   {run: cmdLogin},
	"logout":  {run: cmdLogout, needsSession: true},
	"budget":  {run: cmdBudget, needsSession: true},
	"add":     {run: cmdAdd, needsSession: true},
	"ls":      {run: cmdList, needsSession: true},
	"rm":      {run: cmdRemove, needsSession: true},
	"clear":   {run: cmdClear, needsSession: true},
	"summary": {run: cmdSummary, needsSession: true},
	"report":  {run: cmdReport, needsSession: true},
	"ask":     {run: cmdAsk, needsSession: true},
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	configPath := os.Getenv("FINSTRESS_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.SetOutput(stderr)
	log.SetLevel(log.WarnLevel)

	fs := flag.NewFlagSet("finctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stdout, usage) }
	dbPath := fs.String("db", cfg.DB.Path, "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("missing command")
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", name)
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	provider, err := auth.NewStaticProvider()
	if err != nil {
		return err
	}

	e := &env{
		ctx:    context.Background(),
		cfg:    cfg,
		db:     db,
		gate:   auth.NewGate(provider, db),
		stdin:  stdin,
		stdout: stdout,
	}

	if cmd.needsSession {
		if err := e.requireSession(); err != nil {
			return err
		}
		if e.tracker, err = app.NewTracker(e.ctx, db); err != nil {
			return fmt.Errorf("failed to load data: %w", err)
		}
	}
	return cmd.run(e, fs.Args()[1:])
}

// requireSession checks the token saved by login.
func (e *env) requireSession() error {
	token, found, err := e.db.Get(e.ctx, storage.KeySession)
	if err != nil {
		return err
	}
	if !found {
		return errNotLoggedIn
	}
	if _, err := e.gate.Check(e.ctx, auth.SessionToken(token)); err != nil {
		_ = e.db.Delete(e.ctx, storage.KeySession)
		return errNotLoggedIn
	}
	return nil
}

func cmdLogin(e *env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(e.stdout, "Usage: finctl login -user <username> [-password <password>]")
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(e.stdout, "Password: ")
		var err error
		password, err = readPassword(e.stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(e.stdout) // Print newline after password input
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	token, err := e.gate.Login(e.ctx, *username, password)
	if err != nil {
		return err
	}
	if err := e.db.Set(e.ctx, storage.KeySession, string(token)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintf(e.stdout, "Logged in as %s\n", *username)
	return nil
}

func cmdLogout(e *env, _ []string) error {
	token, _, err := e.db.Get(e.ctx, storage.KeySession)
	if err != nil {
		return err
	}
	if err := e.gate.Logout(e.ctx, auth.SessionToken(token)); err != nil {
		return err
	}
	if err := e.db.Delete(e.ctx, storage.KeySession); err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, "Logged out")
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	return readLine(stdin)
}

func readLine(stdin io.Reader) (string, error) {
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
