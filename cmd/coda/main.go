package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"coda/internal/app"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	var (
		configPath string
		mockMode   bool
		budget     int
		sessionID  string
	)

	root := &cobra.Command{
		Use:   "coda [task]",
		Short: "coda - context-managed coding agent core",
		Long:  "coda keeps an agent conversation within a token budget and reconciles model-proposed edits against file content.\n\nWithout an API client configured it runs against a deterministic mock model.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			task := strings.Join(args, " ")

			if configPath == "" {
				configPath = app.DefaultConfigPath()
			}
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if budget > 0 {
				cfg.ContextLimitTokens = budget
			}

			// Only the mock client ships with the core; real transports plug
			// in behind app.ModelClient.
			if !mockMode {
				return errors.New("no model backend is configured; run with --mock to use the scripted client")
			}

			registry, err := app.NewToolRegistry(app.DefaultToolSpecs()...)
			if err != nil {
				return err
			}
			logger := app.NewLogger(os.Stderr)
			runner := &app.TurnRunner{
				Client:  &app.MockModelClient{},
				Runner:  &app.MockToolRunner{},
				Tools:   registry,
				Monitor: app.NewBudgetMonitor(cfg),
				Config:  cfg,
				Logger:  logger,
			}

			store := app.NewFileSessionStore(cfg.StateDir)
			var sess *app.Session
			var history []app.Message
			if sessionID != "" {
				sess, err = store.LoadSession(cfg.WorkDir, sessionID)
				if err != nil {
					return err
				}
				if sess == nil {
					return fmt.Errorf("session %s not found", sessionID)
				}
				history, err = store.LoadMessages(sess.ID)
				if err != nil {
					return err
				}
			} else {
				sess, err = store.CreateSession(cfg.WorkDir)
				if err != nil {
					return err
				}
			}
			persisted := make(map[string]bool, len(history))
			for _, msg := range history {
				persisted[msg.ID] = true
			}
			if len(history) == 0 {
				history = []app.Message{app.NewMessage(app.RoleSystem, "You are coda, a coding assistant.")}
			}
			logger.Info("session ready", map[string]interface{}{
				"session":  sess.ID,
				"messages": len(history),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			history, err = runner.RunTurn(ctx, history, task)
			if err != nil {
				return err
			}

			for _, msg := range history {
				if persisted[msg.ID] {
					continue
				}
				if storeErr := store.AppendMessage(sess.ID, msg); storeErr != nil {
					return storeErr
				}
			}
			sess.Truncations += runner.Truncations
			if err := store.SaveSession(sess); err != nil {
				return err
			}

			for _, msg := range history {
				if msg.Role == app.RoleAssistant && msg.Content != "" {
					fmt.Println(msg.Content)
				}
			}
			report := runner.Monitor.Report(history)
			logger.Info("turn complete", map[string]interface{}{
				"session":        sess.ID,
				"messages":       len(history),
				"tokens":         report.Total,
				"budget_percent": fmt.Sprintf("%.1f", report.Percent),
				"health":         report.Health,
			})
			return nil
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	root.Flags().BoolVar(&mockMode, "mock", false, "run against the scripted mock model client")
	root.Flags().IntVar(&budget, "budget", 0, "override the context token budget")
	root.Flags().StringVar(&sessionID, "session", "", "resume an existing session by id")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("coda v%s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
