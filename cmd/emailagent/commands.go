package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/credential"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
)

func (e *env) cmdLoadMock(args []string) error {
	ctx := context.Background()
	if len(args) == 0 {
		added, err := e.svc.LoadMock(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded sample inbox: %d new emails\n", added)
		return nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	added, err := e.svc.LoadInbox(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %s: %d new emails\n", args[0], added)
	return nil
}

func (e *env) cmdIngest() error {
	fetched, added, err := e.svc.Ingest(context.Background())
	if errors.Is(err, triage.ErrNoSource) {
		return fmt.Errorf("%w: set imap.server, imap.username and the password (emailagent set-key imap)", err)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Fetched %d messages, %d new\n", fetched, added)
	return nil
}

func (e *env) cmdList() error {
	ctx := context.Background()
	emails, err := e.svc.Emails(ctx)
	if err != nil {
		return err
	}
	processed, err := e.svc.AllProcessed(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tSENDER\tSUBJECT\tCATEGORIES")
	for _, em := range emails {
		cats := ""
		if p, ok := processed[em.ID]; ok {
			cats = strings.Join(p.Categories.CategoryLabels(), ", ")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", em.ID, em.Timestamp, em.Sender, em.Subject, cats)
	}
	return w.Flush()
}

func (e *env) cmdShow(args []string) error {
	id, err := emailID(args)
	if err != nil {
		return err
	}
	ctx := context.Background()

	em, err := e.svc.Email(ctx, id)
	if err != nil {
		return err
	}
	processed, err := e.svc.Processed(ctx, id)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Email     *model.Email           `json:"email"`
		Processed *model.ProcessedResult `json:"processed,omitempty"`
	}{em, processed})
}

func (e *env) cmdProcess(args []string) error {
	id, err := emailID(args)
	if err != nil {
		return err
	}
	result, err := e.svc.Process(context.Background(), id)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (e *env) cmdDraft(args []string) error {
	id, err := emailID(args)
	if err != nil {
		return err
	}
	result, err := e.svc.Draft(context.Background(), id, e.tone)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Draft      model.Draft      `json:"draft"`
		Structured model.Structured `json:"structured"`
	}{result.Draft, result.Structured})
}

func (e *env) cmdDrafts(args []string) error {
	id, err := emailID(args)
	if err != nil {
		return err
	}
	drafts, err := e.svc.Drafts(context.Background(), id)
	if err != nil {
		return err
	}
	return printJSON(drafts)
}

func (e *env) cmdChat(args []string) error {
	id, err := emailID(args)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(args[1:], " "))
	if query == "" {
		return errors.New("usage: chat <id> <question...>")
	}

	answer, _, err := e.svc.Chat(context.Background(), "", id, query)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func (e *env) cmdPrompts() error {
	prompts, err := e.svc.Prompts(context.Background())
	if err != nil {
		return err
	}
	out := make(map[string]string, len(prompts))
	for name, content := range prompts {
		out[string(name)] = content
	}
	return printJSON(out)
}

func (e *env) cmdSetPrompt(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set-prompt <name> <file>")
	}
	content, err := readInput(args[1])
	if err != nil {
		return err
	}
	if err := e.svc.SavePrompt(context.Background(), model.PromptName(args[0]), content); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", args[0])
	return nil
}

func (e *env) cmdTestPrompt(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: test-prompt <name> <file>")
	}
	input, err := readInput(args[1])
	if err != nil {
		return err
	}

	result, err := e.svc.TestPrompt(context.Background(), model.PromptName(args[0]), "", input, e.tone)
	if err != nil {
		return err
	}
	if result.Text != "" {
		fmt.Println(result.Text)
		return nil
	}
	return printJSON(result.Structured)
}

// cmdSetKey stores a secret read from the first line of stdin.
func cmdSetKey(secrets credential.SecretStore, args []string) error {
	key := credential.KeyOpenAI
	if len(args) > 0 {
		switch args[0] {
		case "openai":
		case "imap":
			key = credential.KeyIMAPPassword
		default:
			return fmt.Errorf("unknown secret %q: use openai or imap", args[0])
		}
	}

	fmt.Fprintf(os.Stderr, "Enter value for %s: ", key)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading secret: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return errors.New("empty value; nothing stored")
	}

	if err := secrets.Set(key, value); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Stored.")
	return nil
}

func emailID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errors.New("missing email id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid email id %q", args[0])
	}
	return id, nil
}

// readInput reads a whole file, or stdin for "-".
func readInput(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
