// Command strawberryphone is the terminal surface for the roleplay chat
// engine: an interactive chat session plus backup export/import and model
// listing utilities.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"strawberryphone/ai"
	"strawberryphone/chat"
	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
	"strawberryphone/internal/store"
	"strawberryphone/moments"
	"strawberryphone/pkg/config"
	"strawberryphone/pkg/logger"
	"strawberryphone/scheduler"
)

var (
	storePath string
	verbose   bool
)

func main() {
	root := &cobra.Command{
		Use:           "strawberryphone",
		Short:         "Simulated-phone roleplay chat client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if verbose {
				level = "debug"
			}
			logger.SetGlobal(logger.New(logger.Config{Level: level, JSON: false, Output: os.Stderr}))
		},
	}
	cfg := config.Get()
	root.PersistentFlags().StringVar(&storePath, "store", cfg.Store.Path, "path to the data store")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(exportCmd(), importCmd(), modelsCmd(), chatCmd(cfg))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore() (*store.Store, error) {
	return store.Open(storePath)
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup of every stored record as a JSON document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := os.Stdout
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return st.Export(out)
		},
	}
}

func importCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a backup, overwriting every matching stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm("This overwrites your current data. Continue?") {
				return nil
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Import(f)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models advertised by the configured endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg := config.Get()
			settings := st.LoadSettings(defaultSettings(cfg))
			gw := ai.NewGateway(cfg.API.Timeout)
			names, err := gw.ListModels(cmd.Context(), settings.BaseURL, settings.APIKey)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func defaultSettings(cfg *config.Config) models.Settings {
	return models.Settings{
		APIKey:      cfg.API.Key,
		Model:       cfg.API.Model,
		Temperature: cfg.API.Temperature,
		BaseURL:     cfg.API.BaseURL,
	}
}

func chatCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <character name>",
		Short: "Open an interactive chat session with a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			appState := state.Load(st, defaultSettings(cfg))
			target := findCharacter(appState, args[0])
			if target == nil {
				return fmt.Errorf("no character named %q", args[0])
			}

			events := &consoleEvents{state: appState}
			gw := ai.NewGateway(cfg.API.Timeout)
			chats := chat.NewService(appState, gw, events)
			feed := moments.NewService(appState, chats, events, cfg.Features.MaxMomentComments)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go scheduler.New(appState, chats, feed, cfg).Run(ctx)

			return runREPL(ctx, appState, chats, target)
		},
	}
}

func findCharacter(appState *state.State, name string) *models.Character {
	for _, c := range appState.Characters() {
		if c.Name == name || c.ID == name {
			return c
		}
	}
	return nil
}

func runREPL(ctx context.Context, appState *state.State, chats *chat.Service, c *models.Character) error {
	appState.SetActiveChat(c.ID)
	defer appState.SetActiveChat("")
	if err := chats.MarkRead(c.ID); err != nil {
		return err
	}

	fmt.Printf("Chatting with %s. /continue asks for more, /transfer <amount> sends money, /dice rolls, /quit leaves.\n", c.Name)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var err error
		switch {
		case line == "/quit":
			return nil
		case line == "/continue":
			err = chats.Continue(ctx, c.ID)
		case line == "/dice":
			if err = chats.SendDice(c.ID); err == nil {
				err = chats.RespondTo(ctx, c.ID)
			}
		case strings.HasPrefix(line, "/transfer "):
			var amount float64
			amount, err = strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "/transfer ")), 64)
			if err != nil {
				fmt.Println("usage: /transfer <amount>")
				continue
			}
			if err = chats.SendTransfer(c.ID, amount); err == nil {
				err = chats.RespondTo(ctx, c.ID)
			}
		default:
			if err = chats.SendText(c.ID, line, nil); err == nil {
				err = chats.RespondTo(ctx, c.ID)
			}
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "!", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
