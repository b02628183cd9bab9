package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/alfredjeanlab/kplan/internal/client"
	"github.com/alfredjeanlab/kplan/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	jsonOutput bool
	actor      string

	planClient client.PlanClient
)

func defaultActor() string {
	if s := os.Getenv("KPLAN_ACTOR"); s != "" {
		return s
	}
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultHTTPURL() string {
	if s := os.Getenv("KPLAN_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemote().HTTPURL; u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("KPLAN_SERVER"); s != "" {
		return s
	}
	if u := activeRemote().URL; u != "" {
		return u
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("KPLAN_AUTH_TOKEN"); s != "" {
		return s
	}
	return activeRemote().Token
}

// newClient builds the client for the selected transport.
func newClient() (client.PlanClient, error) {
	switch transport {
	case "http":
		return client.NewHTTPClient(httpURL, defaultToken()), nil
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, defaultToken())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
	}
}

// skipClient is used as PersistentPreRunE by commands that never talk to
// the server.
func skipClient(*cobra.Command, []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "kp <command>",
	Short:         "CLI client for the kplan dependency and capacity service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		planClient = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if planClient != nil {
			_ = planClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name recorded on changes")

	rootCmd.AddGroup(
		&cobra.Group{ID: "deps", Title: "Dependencies:"},
		&cobra.Group{ID: "capacity", Title: "Capacity:"},
		&cobra.Group{ID: "reports", Title: "Reports:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Dependencies
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(depCmd)
	rootCmd.AddCommand(explainCmd)

	// Capacity
	rootCmd.AddCommand(capacityCmd)
	rootCmd.AddCommand(overloadsCmd)

	// Reports
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
