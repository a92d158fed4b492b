package main

import (
	"context"
	"log"
	"os"

	"github.com/1broseidon/edgeseek/internal/daemon"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "edgeseek",
	Short: "Screen-edge strips that adjust brightness and volume",
	Long: `edgeseek puts thin touch strips along the edges of the primary monitor.
Dragging along a strip adjusts the setting it is bound to.

Run "edgeseek daemon" from your X session startup.`,
	SilenceUsage: true,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the edge overlay daemon in the foreground",
	Args:  cobra.NoArgs,
	Run:   runDaemon,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.config/edgeseek/config.yaml)")
	rootCmd.AddCommand(daemonCmd, enableCmd, disableCmd, reloadCmd, statusCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) {
	if err := daemon.Run(context.Background(), daemon.Options{
		ConfigPath: configPath,
		LogOutput:  os.Stderr,
	}); err != nil {
		log.Fatalf("edgeseek daemon: %v", err)
	}
}
