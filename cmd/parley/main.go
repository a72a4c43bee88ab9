package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	_ "github.com/joho/godotenv/autoload"

	"github.com/jmallon/parley/core/format"
	"github.com/jmallon/parley/core/session"
	"github.com/jmallon/parley/core/store"
	"github.com/jmallon/parley/providers/ai"
	"github.com/jmallon/parley/providers/ai/anthropic"
	"github.com/jmallon/parley/providers/ai/openai"
	"github.com/jmallon/parley/providers/ai/xai"
	"github.com/jmallon/parley/providers/observability"
	"github.com/jmallon/parley/providers/observability/slogobs"
)

type config struct {
	DataPath       string `env:"PARLEY_DATA_PATH" envDefault:"data/parley.db"`
	Provider       string `env:"PARLEY_PROVIDER" envDefault:"openai"`
	Model          string `env:"PARLEY_MODEL"`
	MaxTokens      int    `env:"PARLEY_MAX_TOKENS" envDefault:"1000"`
	LogLevel       string `env:"PARLEY_LOG_LEVEL" envDefault:"warn"`
	HTMLToMarkdown bool   `env:"PARLEY_HTML_TO_MARKDOWN" envDefault:"false"`

	OpenAIKey    string `env:"OPENAI_API_KEY"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
	XAIKey       string `env:"XAI_API_KEY"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "parley:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	observer := slogobs.New(logger)
	ctx := observability.ContextWithObserver(context.Background(), observer)

	kv, err := store.OpenBolt(cfg.DataPath)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	st, err := store.Open(kv, store.WithObserver(observer))
	if err != nil {
		return err
	}
	keyring := store.NewKeyring(kv)

	providers := map[string]ai.Provider{
		ai.ProviderOpenAI:    openai.New(),
		ai.ProviderAnthropic: anthropic.New().WithMaxTokens(cfg.MaxTokens),
		ai.ProviderXAI:       xai.New(),
	}

	keys, err := resolveKeys(keyring, cfg)
	if err != nil {
		return err
	}

	formatterOpts := []format.Option{}
	if cfg.HTMLToMarkdown {
		formatterOpts = append(formatterOpts, format.WithHTMLConversion())
	}

	orch := session.New(providers, st, session.Config{
		Provider:  cfg.Provider,
		Models:    map[string]string{cfg.Provider: cfg.Model},
		Keys:      keys,
		MaxTokens: cfg.MaxTokens,
	}, session.WithFormatter(format.New(formatterOpts...)))

	return repl(ctx, orch, st, keyring)
}

// resolveKeys fills the per-provider key map, environment first, keyring
// second.
func resolveKeys(keyring *store.Keyring, cfg config) (map[string]string, error) {
	keys := map[string]string{
		ai.ProviderOpenAI:    cfg.OpenAIKey,
		ai.ProviderAnthropic: cfg.AnthropicKey,
		ai.ProviderXAI:       cfg.XAIKey,
	}
	for provider, key := range keys {
		if key != "" {
			continue
		}
		stored, err := keyring.APIKey(provider)
		if err != nil {
			return nil, fmt.Errorf("reading %s key: %w", provider, err)
		}
		keys[provider] = stored
	}
	return keys, nil
}

func repl(ctx context.Context, orch *session.Orchestrator, st *store.Store, keyring *store.Keyring) error {
	fmt.Println("parley - /help for commands")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for {
		fmt.Printf("[%s] > ", orch.Provider())
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := command(ctx, orch, st, keyring, line); quit {
				return nil
			}
			continue
		}

		send(ctx, orch, line)
	}
}

func send(ctx context.Context, orch *session.Orchestrator, input string) {
	err := orch.Submit(ctx, input)
	if err != nil {
		if notice := orch.Notice(); notice != nil {
			fmt.Println("!", notice.Message)
			if notice.Hint != "" {
				fmt.Println(" ", notice.Hint)
			}
		} else {
			fmt.Println("!", err)
		}
		orch.Acknowledge()
		return
	}

	messages := orch.Messages()
	if len(messages) > 0 {
		fmt.Println(messages[len(messages)-1].Content)
	}
}

// command dispatches a slash command. Returns true when the REPL should exit.
func command(ctx context.Context, orch *session.Orchestrator, st *store.Store, keyring *store.Keyring, line string) bool {
	fields := strings.Fields(line)
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Print(helpText)

	case "/new":
		report(orch.StartNew(ctx))

	case "/save":
		saveActive(ctx, orch, false)

	case "/savep":
		saveActive(ctx, orch, true)

	case "/list":
		for _, conv := range st.List(ctx) {
			tier := "temporary"
			if conv.Permanent {
				tier = "permanent"
			}
			fmt.Printf("%s  %s  %d messages  %s\n",
				conv.ID, tier, len(conv.Messages), conv.ArchivedAt.Format("2006-01-02 15:04"))
		}

	case "/load":
		report(orch.LoadConversation(ctx, arg(1)))

	case "/delete":
		fmt.Printf("delete %s? [y/N] ", arg(1))
		confirm := bufio.NewScanner(os.Stdin)
		if confirm.Scan() && strings.EqualFold(strings.TrimSpace(confirm.Text()), "y") {
			report(st.Delete(ctx, arg(1)))
		}

	case "/provider":
		report(orch.SelectProvider(arg(1)))

	case "/model":
		orch.SelectModel(arg(1))

	case "/attach":
		att, err := readAttachment(arg(1))
		if err != nil {
			fmt.Println("!", err)
			break
		}
		orch.AddAttachment(att)
		fmt.Printf("attached %s (%d bytes)\n", att.Name, att.SizeBytes)

	case "/clearfiles":
		orch.ClearAttachments()

	case "/key":
		provider, key := arg(1), arg(2)
		if provider == "" || key == "" {
			fmt.Println("! usage: /key <provider> <key>")
			break
		}
		if err := keyring.SetAPIKey(provider, key); err != nil {
			fmt.Println("!", err)
			break
		}
		orch.SetAPIKey(provider, strings.TrimSpace(key))
		fmt.Println("key saved")

	default:
		fmt.Println("! unknown command, /help for commands")
	}
	return false
}

func saveActive(ctx context.Context, orch *session.Orchestrator, permanent bool) {
	conv, err := orch.SaveActive(ctx, permanent)
	if err != nil {
		fmt.Println("!", err)
		return
	}
	fmt.Println("saved", conv.ID)
}

func report(err error) {
	if err != nil {
		fmt.Println("!", err)
	}
}

// readAttachment loads a file and transcodes it to the text-safe form the
// formatter inlines: raw text for textual MIME types, base64 otherwise.
func readAttachment(path string) (ai.Attachment, error) {
	if path == "" {
		return ai.Attachment{}, fmt.Errorf("usage: /attach <path>")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ai.Attachment{}, err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	encoded := string(data)
	if !isTextual(mimeType) {
		encoded = base64.StdEncoding.EncodeToString(data)
	}

	return ai.Attachment{
		Name:      filepath.Base(path),
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Data:      encoded,
	}, nil
}

func isTextual(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch {
	case strings.HasPrefix(mimeType, "application/json"),
		strings.HasPrefix(mimeType, "application/xml"),
		strings.HasPrefix(mimeType, "application/x-yaml"):
		return true
	}
	return false
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

const helpText = `commands:
  /new                 archive the session (temporary) and start fresh
  /save                archive the session into the temporary tier
  /savep               archive the session into the permanent tier
  /list                list archived conversations
  /load <id>           open an archived conversation
  /delete <id>         delete an archived conversation
  /provider <tag>      switch provider (openai, anthropic, xai)
  /model <variant>     set the model variant for the current provider
  /attach <path>       queue a file for the next message
  /clearfiles          drop queued attachments
  /key <provider> <k>  save an API key
  /quit                exit
`
