package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/focusplan/bot/cmd/bot/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "focusplan-bot",
		Short: "FocusPlan daily task-tracking bot",
		Long:  `FocusPlan is a Telegram bot for daily task tracking: three capped main tasks plus unlimited extras per day, scheduled reminders, and automatic rollover of unfinished work.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewRolloverCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
