package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/cogcore/internal/agent"
	"github.com/nextlevelbuilder/cogcore/internal/bgtask"
	"github.com/nextlevelbuilder/cogcore/internal/bootstrap"
	"github.com/nextlevelbuilder/cogcore/internal/bus"
	"github.com/nextlevelbuilder/cogcore/internal/config"
	"github.com/nextlevelbuilder/cogcore/internal/distill"
	"github.com/nextlevelbuilder/cogcore/internal/journal"
	"github.com/nextlevelbuilder/cogcore/internal/maintenance"
	"github.com/nextlevelbuilder/cogcore/internal/memory"
	"github.com/nextlevelbuilder/cogcore/internal/reflect"
	"github.com/nextlevelbuilder/cogcore/internal/sessions"
	"github.com/nextlevelbuilder/cogcore/internal/telemetry"
	"github.com/nextlevelbuilder/cogcore/internal/tools"
)

// runCmd wires every core component together and drives the agent loop
// against a stdin/stdout channel over an in-process bus, matching the
// teacher's cmd/agent_chat_standalone.go "no gateway needed" smoke-test
// texture.
func runCmd() *cobra.Command {
	var channel, chatID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the cognition core against a local stdin/stdout channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runLoop(cmd.Context(), cfg, channel, chatID, verbose)
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "cli", "channel name attached to every inbound message")
	cmd.Flags().StringVar(&chatID, "chat-id", "local", "chat id attached to every inbound message")
	return cmd
}

func runLoop(ctx context.Context, cfg *config.Config, channel, chatID string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	workspace := cfg.WorkspacePath()
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	if created, err := bootstrap.EnsureWorkspaceFiles(workspace, logger); err != nil {
		return fmt.Errorf("seed workspace: %w", err)
	} else if len(created) > 0 {
		logger.Info("cogctl: seeded instruction files", "files", created)
	}

	memStore, err := memory.New(workspace, logger)
	if err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	journalStore, err := journal.New(workspace, logger)
	if err != nil {
		return fmt.Errorf("journal store: %w", err)
	}
	sessionStore := sessions.NewManager(filepath.Join(workspace, "sessions"), time.Duration(cfg.InactivityTimeoutSeconds)*time.Second)

	provider := newEchoProvider(cfg.PrimaryModel)

	router := bus.NewInProcess(0)

	// loop is assigned after construction below; the subagent spawn tool
	// closes over the pointer so it can recurse into the same loop once it
	// exists (spec §4.7's "context-bearing" tools only need the routing
	// context, not a second Loop instance).
	var loop *agent.Loop

	registry := tools.NewRegistry(logger)
	registry.Register(tools.NewWriteFactTool(memStore))
	registry.Register(tools.NewWriteDecisionTool(memStore))
	registry.Register(tools.NewWriteGoalTool(memStore))
	registry.Register(tools.NewWriteTaskTool(memStore))
	registry.Register(tools.NewWriteReflectionTool(memStore))
	registry.Register(tools.NewSearchMemoryTool(memStore))
	registry.Register(tools.NewMessageEmissionTool(func(ctx context.Context, channel, chatID, content string) error {
		router.PublishOutbound(bus.OutboundMessage{Channel: channel, ChatID: chatID, Content: content})
		return nil
	}))
	registry.Register(tools.NewSubagentSpawnTool(func(ctx context.Context, channel, chatID, task string) (string, error) {
		return loop.ProcessMessage(ctx, bus.InboundMessage{
			Channel: channel,
			ChatID:  chatID + ":sub",
			Content: task,
		})
	}))

	extractor := distill.New(provider, memStore, logger)
	promoter := reflect.NewPromoter(
		workspace,
		provider,
		cfg.ModelFor(config.JobClassReflect),
		cfg.ReflectionPromotion.TargetFiles,
		cfg.ReflectionPromotion.MaxFileLines,
		logger,
	)

	loop = agent.NewLoop(agent.Deps{
		Provider:  provider,
		Config:    cfg,
		Sessions:  sessionStore,
		Memory:    memStore,
		Journal:   journalStore,
		Tools:     registry,
		Distiller: extractor,
		Promoter:  promoter,
		BG:        bgtask.NewTracker(logger),
		Trace:     telemetry.New(),
		Logger:    logger,
		NotifyUser: func(sessionKey, content string) error {
			fmt.Fprintf(os.Stderr, "[notify %s] %s\n", sessionKey, content)
			return nil
		},
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := maintenance.NewScheduler(time.Minute, logger)
	sched.Register("bootstrap-file-size-check", "*/15 * * * *", func(context.Context) error {
		return promoter.CheckFileSizes()
	})
	go func() {
		if err := sched.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Warn("cogctl: maintenance scheduler stopped", "error", err)
		}
	}()

	go readStdinLoop(runCtx, router, channel, chatID)
	go printOutboundLoop(runCtx, router)

	fmt.Println("cogctl: ready. Type a message and press enter (/help for commands, Ctrl-D to exit).")

	for {
		select {
		case <-runCtx.Done():
			return nil
		default:
		}

		pollCtx, cancel := context.WithTimeout(runCtx, time.Second)
		msg, ok := router.ConsumeInbound(pollCtx)
		cancel()
		if !ok {
			if runCtx.Err() != nil {
				return nil
			}
			continue
		}

		reply, err := loop.ProcessMessage(runCtx, msg)
		if err != nil {
			logger.Error("cogctl: process message failed", "error", err)
			continue
		}
		fmt.Println(reply)
	}
}

// printOutboundLoop drains messages the send_message tool pushes outside
// the normal response path and prints them, so they are not silently
// queued forever against the bus's bounded channel.
func printOutboundLoop(ctx context.Context, router *bus.InProcess) {
	for {
		msg, ok := router.ConsumeOutbound(ctx)
		if !ok {
			return
		}
		fmt.Printf("[%s:%s] %s\n", msg.Channel, msg.ChatID, msg.Content)
	}
}

// readStdinLoop publishes each line of stdin as an inbound message,
// closing when stdin reaches EOF or the context is cancelled.
func readStdinLoop(ctx context.Context, router *bus.InProcess, channel, chatID string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		router.PublishInbound(bus.InboundMessage{
			Channel: channel,
			ChatID:  chatID,
			Content: scanner.Text(),
		})
	}
}
