package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/routinely/routinely-server/internal/client"
)

var (
	serviceURLFlag string
	timeoutFlag    time.Duration
	rootCmd        = &cobra.Command{
		Use:   "routinectl",
		Short: "CLI client for the scheduler service REST API",
	}
)

func newClient() *client.Client {
	return client.New(serviceURLFlag, timeoutFlag)
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&serviceURLFlag, "service-url", "s", "http://localhost:8080", "Scheduler service base URL")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 15*time.Second, "Request timeout")

	// health subcommand
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newClient().Health(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, status)
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
