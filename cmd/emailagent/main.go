// Command emailagent is a prompt-driven email triage assistant: it loads
// an inbox, categorizes messages, extracts action items, drafts replies
// and answers questions about an email, from a terminal UI or the command
// line.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/app"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/credential"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/llm"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/logging"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source/email"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/store"
	appsync "github.com/Bhavana-34/Prompt-Driven-Email/internal/sync"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
)

const usage = `Usage: emailagent [flags] [command] [args]

Commands:
  tui                        interactive terminal UI (default)
  load-mock [path]           load a JSON inbox (the bundled sample if no path)
  ingest                     fetch recent mail over IMAP
  list                       list the inbox, newest first
  show <id>                  show an email with its stored results
  process <id>               categorize and extract action items
  draft <id> [--tone t]      generate and save a reply draft
  drafts <id>                list saved drafts
  chat <id> <question...>    ask about an email
  prompts                    print the prompt templates
  set-prompt <name> <file>   replace a prompt ("-" reads stdin)
  test-prompt <name> <file>  run a prompt against text without saving
  set-key [openai|imap]      store a secret in the keyring, read from stdin

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "emailagent:", err)
		os.Exit(1)
	}
}

// env is everything a command needs, built once from the configuration.
type env struct {
	cfg     *model.AppConfig
	cfgPath string
	log     *zap.Logger
	secrets *credential.Keyring
	store   *store.SQLiteStore
	svc     *triage.Service
	imap    *email.IMAPClient
	tone    string
}

func run(args []string) error {
	fs := pflag.NewFlagSet("emailagent", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	fs.String("db", "", "SQLite database path (overrides database.path)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.Bool("mock", false, "use canned model answers even when an API key is set")
	tone := fs.String("tone", "", "reply tone for draft: friendly, professional, concise, formal")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	v, err := model.NewViper(*configPath)
	if err != nil {
		return err
	}
	bindings := map[string]string{
		"database.path":  "db",
		"log.level":      "log-level",
		"llm.force_mock": "mock",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	cfg, err := model.ConfigFromViper(v)
	if err != nil {
		return err
	}

	command := "tui"
	rest := fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	// set-key must work before anything else is configured.
	secrets := credential.NewKeyring(model.ConfigDir())
	if command == "set-key" {
		return cmdSetKey(secrets, rest)
	}

	e, err := setup(cfg, *configPath, secrets)
	if err != nil {
		return err
	}
	defer e.close()

	e.tone = *tone
	if e.tone == "" {
		e.tone = cfg.Display.DefaultTone
	}

	switch command {
	case "tui":
		return e.runTUI()
	case "load-mock":
		return e.cmdLoadMock(rest)
	case "ingest":
		return e.cmdIngest()
	case "list":
		return e.cmdList()
	case "show":
		return e.cmdShow(rest)
	case "process":
		return e.cmdProcess(rest)
	case "draft":
		return e.cmdDraft(rest)
	case "drafts":
		return e.cmdDrafts(rest)
	case "chat":
		return e.cmdChat(rest)
	case "prompts":
		return e.cmdPrompts()
	case "set-prompt":
		return e.cmdSetPrompt(rest)
	case "test-prompt":
		return e.cmdTestPrompt(rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// setup resolves secrets and opens the logger, the store and the service.
func setup(cfg *model.AppConfig, cfgPath string, secrets *credential.Keyring) (*env, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	resolver := credential.NewResolver(secrets, log)
	cfg.LLM.APIKey = resolver.Resolve(cfg.LLM.APIKey, credential.KeyOpenAI)
	cfg.IMAP.Password = resolver.Resolve(cfg.IMAP.Password, credential.KeyIMAPPassword)

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	assistant := llm.New(llm.Config{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		Client:    cfg.LLM.Client,
		Timeout:   time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		ForceMock: cfg.LLM.ForceMock,
	}, log)

	e := &env{
		cfg:     cfg,
		cfgPath: cfgPath,
		log:     log,
		secrets: secrets,
		store:   st,
	}

	opts := []triage.Option{triage.WithLogger(log)}
	imapClient := email.NewIMAPClient(cfg.IMAP)
	if imapClient.Configured() {
		e.imap = imapClient
		opts = append(opts, triage.WithFetcher(imapClient))
	}
	e.svc = triage.NewService(st, assistant, opts...)

	return e, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("closing store", zap.Error(err))
	}
	_ = e.log.Sync()
}

// runTUI starts the terminal UI, with background ingest when IMAP is
// configured and a poll interval is set.
func (e *env) runTUI() error {
	var poller *appsync.Poller
	if e.imap != nil && e.cfg.IMAP.PollIntervalSec > 0 {
		interval := time.Duration(e.cfg.IMAP.PollIntervalSec) * time.Second
		poller = appsync.New(e.svc, interval, e.log)
	}

	root := app.New(app.Options{
		Service:    e.svc,
		Secrets:    e.secrets,
		Config:     e.cfg,
		ConfigPath: e.cfgPath,
		Poller:     poller,
		Log:        e.log,
	})

	p := tea.NewProgram(root, tea.WithAltScreen())
	_, err := p.Run()
	if poller != nil {
		poller.Stop()
	}
	return err
}
