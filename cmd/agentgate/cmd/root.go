package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "agentgate is a session-authenticated gateway for agent queries",
	Long: `A small HTTP gateway that logs configured users in, issues session cookies,
serves a static front end and forwards authenticated queries to an agent API.
Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
