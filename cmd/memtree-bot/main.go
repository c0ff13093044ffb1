package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/murata-lab/memtree/internal/config"
	"github.com/murata-lab/memtree/internal/handler"
	"github.com/murata-lab/memtree/internal/logging"
	"github.com/murata-lab/memtree/internal/sysinfo"
)

func main() {
	log := logging.New("memtree-bot")
	fatal := logging.NewError("memtree-bot")

	// Load .env from current dir, then from executable dir
	_ = godotenv.Load()
	if exe, err := os.Executable(); err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exe), ".env"))
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateBot()
	}
	if err != nil {
		fatal.Warn("config error: ", err)
		os.Exit(1)
	}

	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		fatal.Warn("discord session error: ", err)
		os.Exit(1)
	}

	h := handler.New(sysinfo.NewProvider(), cfg)
	handlers := h.Handlers()

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Infoln("Logged in as:", s.State.User.Username)
	})

	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		if fn, ok := handlers[i.ApplicationCommandData().Name]; ok {
			fn(s, i)
		}
	})

	if err := dg.Open(); err != nil {
		fatal.Warn("open connection error: ", err)
		os.Exit(1)
	}
	defer dg.Close()

	// Register commands
	cmds := h.Commands()
	registeredCmds := make([]*discordgo.ApplicationCommand, len(cmds))
	for i, cmd := range cmds {
		registered, err := dg.ApplicationCommandCreate(dg.State.User.ID, cfg.GuildID, cmd)
		if err != nil {
			log.Warn("command register error (", cmd.Name, "): ", err)
			continue
		}
		registeredCmds[i] = registered
		log.Infoln("Registered command:", cmd.Name)
	}

	log.Infoln("Bot is running. Press Ctrl+C to exit.")

	// Wait for interrupt
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Infoln("Shutting down...")

	// Cleanup commands on shutdown (optional, for dev)
	if os.Getenv("CLEANUP_COMMANDS") == "1" {
		for _, cmd := range registeredCmds {
			if cmd != nil {
				if err := dg.ApplicationCommandDelete(dg.State.User.ID, cfg.GuildID, cmd.ID); err != nil {
					log.Warn("command delete error (", cmd.Name, "): ", err)
				}
			}
		}
	}
}
