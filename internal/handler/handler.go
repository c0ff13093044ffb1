package handler

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/bwmarrin/discordgo"

	"github.com/murata-lab/memtree/internal/config"
	"github.com/murata-lab/memtree/internal/logging"
	"github.com/murata-lab/memtree/internal/memory"
)

// maxMessageLen is the Discord limit for message content.
const maxMessageLen = 2000

// Command represents a Discord slash command with its handler.
type Command struct {
	Name        string
	Description string
	Options     []*discordgo.ApplicationCommandOption
	Execute     func(*discordgo.Session, *discordgo.InteractionCreate)
}

// Handler serves the memory slash commands. Every command takes a fresh
// snapshot from the provider.
type Handler struct {
	provider memory.Provider
	cfg      *config.Config
	timeout  time.Duration
	log      *logger.Logger
	errs     *logging.Suppressor
	commands []Command
}

// Option configures Handler
type Option func(*Handler)

// WithTimeout sets the time limit for one snapshot collection.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

// WithSuppressor sets the suppressor used for repeated collection errors.
func WithSuppressor(s *logging.Suppressor) Option {
	return func(h *Handler) {
		h.errs = s
	}
}

// New creates a Handler that collects snapshots from p.
func New(p memory.Provider, cfg *config.Config, opts ...Option) *Handler {
	h := &Handler{
		provider: p,
		cfg:      cfg,
		timeout:  30 * time.Second,
		log:      logging.New("handler"),
		errs:     logging.NewSuppressor(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.commands = []Command{
		{"memory", "メモリ使用状況を表示", nil, h.cmdMemory},
		{"top", "メモリ使用量の多いプロセスを表示", []*discordgo.ApplicationCommandOption{
			intOptionDef("n", "表示件数", 1, maxTopCount),
		}, h.cmdTop},
		{"ptree", "プロセスツリーとメモリ合計を表示", []*discordgo.ApplicationCommandOption{
			intOptionDef("depth", "表示する深さ", 1, maxTreeDepth),
		}, h.cmdTree},
	}
	return h
}

// Commands returns Discord application commands for registration.
func (h *Handler) Commands() []*discordgo.ApplicationCommand {
	result := make([]*discordgo.ApplicationCommand, len(h.commands))
	for i, cmd := range h.commands {
		result[i] = &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		}
	}
	return result
}

// Handlers returns a map of command handlers.
func (h *Handler) Handlers() map[string]func(*discordgo.Session, *discordgo.InteractionCreate) {
	result := make(map[string]func(*discordgo.Session, *discordgo.InteractionCreate))
	for _, cmd := range h.commands {
		result[cmd.Name] = cmd.Execute
	}
	return result
}

// snapshot collects a fresh snapshot. Failures are logged through the
// suppressor under the command name.
func (h *Handler) snapshot(name string) (*memory.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	snap, err := memory.Collect(ctx, h.provider)
	h.errs.Report(h.log, name, err)
	return snap, err
}

// respond sends a response to a Discord interaction.
func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fitMessage(content),
		},
	})
	if err != nil {
		h.log.Warn("respond error: ", err)
	}
}

// deferredRespond acknowledges an interaction whose answer comes later.
func (h *Handler) deferredRespond(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		h.log.Warn("deferred respond error: ", err)
	}
	return err
}

// followup sends the answer to a deferred interaction.
func (h *Handler) followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: fitMessage(content),
	})
	if err != nil {
		h.log.Warn("followup error: ", err)
	}
}

// fitMessage truncates content to the Discord message limit, closing a
// code block left open by the cut.
func fitMessage(content string) string {
	if utf8.RuneCountInString(content) <= maxMessageLen {
		return content
	}

	const fence = "```"
	const more = "\n…"
	head := string([]rune(content)[:maxMessageLen-utf8.RuneCountInString(more+"\n"+fence)])
	if strings.Count(head, fence)%2 == 1 {
		return head + more + "\n" + fence
	}
	return head + more
}

// statusIndicator returns an emoji based on value thresholds.
func statusIndicator(val, warn, crit float64) string {
	switch {
	case val >= crit:
		return "🔴"
	case val >= warn:
		return "🟡"
	default:
		return "🟢"
	}
}
