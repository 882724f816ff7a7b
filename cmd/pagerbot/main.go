package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EmbedPager/internal/config"
	"EmbedPager/internal/embed"
	"EmbedPager/internal/history"
	"EmbedPager/internal/pager"
	"EmbedPager/internal/platform"
	"EmbedPager/internal/platform/gateway"
	"EmbedPager/internal/platform/memory"
	"EmbedPager/internal/telemetry"
)

func main() {
	cfg := config.Default()
	configPath := flag.String("config", "", "Path to TOML config file")
	flag.StringVar(&cfg.GatewayURL, "gateway", cfg.GatewayURL, "Websocket gateway URL (empty runs the in-memory demo)")
	flag.StringVar(&cfg.ChannelID, "channel", cfg.ChannelID, "Channel to post the pager into")
	flag.StringVar(&cfg.Initiator, "user", cfg.Initiator, "User whose reactions drive the session")
	flag.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "SQLite path for the session audit trail (empty disables)")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	flag.Parse()

	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		// Explicitly set flags win over the file.
		merged := fileCfg
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "gateway":
				merged.GatewayURL = cfg.GatewayURL
			case "channel":
				merged.ChannelID = cfg.ChannelID
			case "user":
				merged.Initiator = cfg.Initiator
			case "history":
				merged.HistoryPath = cfg.HistoryPath
			case "debug":
				merged.Debug = cfg.Debug
			}
		})
		cfg = merged
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx := context.Background()

	logger, err := telemetry.InitLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	_, _, cleanup, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer cleanup()

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	var channel platform.Channel
	var mem *memory.Channel
	if cfg.GatewayURL != "" {
		client, err := gateway.Dial(cfg.GatewayURL, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		channel = client.Channel(cfg.ChannelID)
	} else {
		mem = memory.NewChannel(cfg.ChannelID)
		channel = mem
	}

	session := pager.New(channel, cfg.SessionOptions(), logger)
	if err := session.SetPages(demoPages()); err != nil {
		return err
	}

	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := session.SetRecorder(store); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	err = session.SetHooks(pager.Hooks{
		OnCreate: func(sent platform.Message) {
			fmt.Printf("session created, message %s\n", sent.ID())
		},
		OnPageUpdate: func(i int) {
			fmt.Printf("jumped to page %d\n", i+1)
		},
		OnStop: func(reason pager.StopReason) {
			fmt.Printf("session stopped: %s\n", reason)
			close(done)
		},
	})
	if err != nil {
		return err
	}

	if err := session.Build(ctx); err != nil {
		return err
	}

	if mem != nil {
		go scriptDemo(session, mem, cfg.Initiator)
	} else {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case <-sig:
				session.Cancel()
			case <-done:
			}
		}()
	}

	<-done
	return nil
}

// scriptDemo drives the in-memory session the way a user would: a few
// reaction clicks, one typed page jump, then stop.
func scriptDemo(session *pager.Session, mem *memory.Channel, user string) {
	msg := mem.LastMessage()
	if msg == nil {
		return
	}

	step := 150 * time.Millisecond
	time.Sleep(step)
	msg.AddReaction(pager.EmojiNext, user)
	time.Sleep(step)
	msg.AddReaction(pager.EmojiNext, user)
	time.Sleep(step)
	msg.AddReaction(pager.EmojiLast, user)
	time.Sleep(step)

	go func() {
		time.Sleep(step)
		mem.PostReply(user, "2")
	}()
	result, err := session.AwaitPageUpdate(context.Background(), user, pager.DefaultJumpConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "page jump failed: %v\n", err)
	} else {
		fmt.Printf("jump outcome: %s\n", result.Outcome)
	}

	time.Sleep(step)
	msg.AddReaction(pager.EmojiStop, user)
}

// demoPages builds 23 items split three to a page.
func demoPages() embed.Pages {
	items := make([]embed.Field, 23)
	for i := range items {
		items[i] = embed.Field{
			Name:  fmt.Sprintf("Entry %d", i+1),
			Value: fmt.Sprintf("Demo entry number %d", i+1),
		}
	}
	return embed.Paginate(items, 3).
		SetAllTitle("EmbedPager demo").
		SetAllColor(0x00ACED)
}
