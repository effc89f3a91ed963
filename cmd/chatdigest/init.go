package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/flemzord/chatdigest/internal/config"
	"github.com/flemzord/chatdigest/modules/provider/gemini"
	"github.com/flemzord/chatdigest/modules/provider/openai"
)

// answers collects the init form.
type answers struct {
	Token      string
	Chats      string
	Backend    string
	APIKey     string
	Timezone   string
	Locale     string
	Triggers   string
	InlineKeys bool
}

// env names written as references when secrets stay out of the file.
const (
	envToken     = "TELEGRAM_BOT_TOKEN"
	envOpenAIKey = "OPENAI_API_KEY"
	envGeminiKey = "GEMINI_API_KEY"
)

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a configuration file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			a := answers{Backend: openai.Name, Timezone: "UTC", Locale: "en"}
			if err := initForm(&a).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			cfg, err := buildConfig(a)
			if err != nil {
				return err
			}
			raw, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, raw, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", path)
			if !a.InlineKeys {
				fmt.Fprintf(out, "Set %s and %s in the environment or in a .env file next to it.\n", envToken, keyEnv(a.Backend))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func initForm(a *answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				Description("From @BotFather, <bot_id>:<hash>").
				EchoMode(huh.EchoModePassword).
				Value(&a.Token).
				Validate(required),
			huh.NewInput().
				Title("Allowed chat ids").
				Description("Comma-separated. Use /chatid in a chat to find its id.").
				Value(&a.Chats).
				Validate(func(s string) error {
					_, err := parseChatIDs(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model backend").
				Options(
					huh.NewOption("OpenAI", openai.Name),
					huh.NewOption("Gemini", gemini.Name),
				).
				Value(&a.Backend),
			huh.NewInput().
				Title("API key").
				EchoMode(huh.EchoModePassword).
				Value(&a.APIKey).
				Validate(required),
			huh.NewConfirm().
				Title("Write the token and key into the file?").
				Description("No writes ${VAR} references instead.").
				Value(&a.InlineKeys),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Timezone").
				Description("IANA name, used for the digest day and quotas").
				Value(&a.Timezone).
				Validate(func(s string) error {
					_, err := time.LoadLocation(strings.TrimSpace(s))
					return err
				}),
			huh.NewSelect[string]().
				Title("Digest language").
				Options(
					huh.NewOption("English", "en"),
					huh.NewOption("Ukrainian", "uk"),
				).
				Value(&a.Locale),
			huh.NewInput().
				Title("Reply trigger phrases").
				Description("Comma-separated, matched case-insensitively").
				Value(&a.Triggers).
				Validate(required),
		),
	)
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

// parseChatIDs parses a comma-separated list of chat ids.
func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q", f)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("at least one chat id is required")
	}
	return ids, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func keyEnv(backend string) string {
	if backend == gemini.Name {
		return envGeminiKey
	}
	return envOpenAIKey
}

// buildConfig turns the form answers into a validated config. Every allowed
// chat is routed to the chosen backend.
func buildConfig(a answers) (*config.Config, error) {
	chats, err := parseChatIDs(a.Chats)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{Timezone: strings.TrimSpace(a.Timezone)}
	cfg.Telegram.Token = strings.TrimSpace(a.Token)
	cfg.Telegram.AllowedChats = chats
	switch a.Backend {
	case gemini.Name:
		cfg.Providers.Gemini = &gemini.Config{APIKey: strings.TrimSpace(a.APIKey), Chats: chats}
	default:
		cfg.Providers.OpenAI = &openai.Config{APIKey: strings.TrimSpace(a.APIKey), Chats: chats}
	}
	cfg.Digest.Locale = a.Locale
	if a.Locale == "uk" {
		cfg.Digest.Language = "Ukrainian"
	} else {
		cfg.Digest.Language = "English"
	}
	cfg.Reply.Triggers = splitList(a.Triggers)

	cfg.Defaults()
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if !a.InlineKeys {
		cfg.Telegram.Token = "${" + envToken + "}"
		if cfg.Providers.Gemini != nil {
			cfg.Providers.Gemini.APIKey = "${" + envGeminiKey + "}"
		}
		if cfg.Providers.OpenAI != nil {
			cfg.Providers.OpenAI.APIKey = "${" + envOpenAIKey + "}"
		}
	}
	return cfg, nil
}
