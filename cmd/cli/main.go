package main

import (
	"Prazo-Certo/cmd/config"
	migration "Prazo-Certo/cmd/database/migrate"
	"Prazo-Certo/internal/utils"
	"Prazo-Certo/internal/utils/mailing"
	"Prazo-Certo/pkg/notification"
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
)

func main() {
	utils.LoadConfig()
	log, logFile, err := utils.NewLogger(utils.GetConfig("LOG_FILE"))
	if err != nil {
		stdlog.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	ctx := context.Background()
	proxy, err := config.NewStorage(ctx, log)
	if err != nil {
		stdlog.Fatalf("failed to build storage: %v", err)
	}
	defer proxy.Close()

	if err := migration.Migrate(ctx, proxy, log); err != nil {
		fmt.Println("migration failed:", err)
	}
	proxy.Start(ctx)

	notifier := notification.NewNotifier(proxy, mailing.NewMailer(mailing.LoadMailConfig()), notification.Config{
		Location: config.Location(),
		Clock:    config.Clock(),
		Logger:   log,
	})
	console := NewConsole(proxy, notifier, os.Stdout)

	items := make([]readline.PrefixCompleterInterface, 0, len(console.Commands()))
	for _, name := range console.Commands() {
		items = append(items, readline.PcItem(name))
	}
	home, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "prazo-certo> ",
		HistoryFile:     filepath.Join(home, ".prazo_certo_history"),
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		stdlog.Fatalf("failed to initialize readline: %v", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Println("Use 'exit' or 'quit' to exit the program.")
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		if err := console.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			fmt.Println("Error:", err)
		}
	}
}
