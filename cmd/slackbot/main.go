package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slackbot",
	Short: "Roadie, the roadmap and reminder Slack bot",
	Long: "Relays Slack slash commands and messages to a language model and the roadmap " +
		"database. Run it over socket mode, plain HTTP, or supervised HTTP.",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(socketCmd, httpCmd, superviseCmd, migrateCmd)
}

func main() {
	fmt.Printf("%s\n", banner)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

const banner = `
██████╗  ██████╗  █████╗ ██████╗ ██╗███████╗
██╔══██╗██╔═══██╗██╔══██╗██╔══██╗██║██╔════╝
██████╔╝██║   ██║███████║██║  ██║██║█████╗  
██╔══██╗██║   ██║██╔══██║██║  ██║██║██╔══╝  
██║  ██║╚██████╔╝██║  ██║██████╔╝██║███████╗
╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═╝╚═════╝ ╚═╝╚══════╝
`
