//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenquant/tradestream/internal/config"
)

// configCmd is the parent command for all configuration-related subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tradestream configuration",
}

// configInitCmd initializes the CLI configuration by prompting for a
// provider and its credential. It checks the matching environment
// variable first and offers to use it, mirroring the teacher's
// config init prompt-then-confirm flow. Configuration is saved to
// ~/.config/tradestream/config.json.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration with your provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}

		reader := bufio.NewReader(os.Stdin)

		fmt.Print("Provider [finnhub/polygon] (finnhub): ")
		provider, _ := reader.ReadString('\n')
		provider = strings.TrimSpace(strings.ToLower(provider))
		if provider == "" {
			provider = "finnhub"
		}
		cfg.Provider = provider

		switch provider {
		case "polygon":
			cfg.PolygonAPIKey = promptForCredential(reader, "POLYGON_API_KEY", "Polygon API key", cfg.PolygonAPIKey)
		default:
			cfg.FinnhubToken = promptForCredential(reader, "FINNHUB_TOKEN", "Finnhub token", cfg.FinnhubToken)
		}

		fmt.Print("Symbols, comma-separated (AAPL,MSFT): ")
		symbols, _ := reader.ReadString('\n')
		symbols = strings.TrimSpace(symbols)
		if symbols != "" {
			cfg.Symbols = splitAndUpper(symbols)
		}

		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Println("Configuration saved to ~/.config/tradestream/config.json")
		return nil
	},
}

// configShowCmd displays the current configuration with credentials
// partially masked for security.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		fmt.Printf("Provider:          %s\n", config.GetProvider(cfg))
		fmt.Printf("Finnhub Token:     %s\n", maskString(cfg.FinnhubToken))
		fmt.Printf("Finnhub WS URL:    %s\n", config.GetFinnhubWSURL(cfg))
		fmt.Printf("Polygon API Key:   %s\n", maskString(cfg.PolygonAPIKey))
		fmt.Printf("Polygon WS URL:    %s\n", config.GetPolygonWSURL(cfg))
		fmt.Printf("Symbols:           %s\n", strings.Join(config.GetSymbols(cfg), ","))
		fmt.Printf("Max Trades:        %d\n", cfg.MaxTrades)
		fmt.Printf("Window Size:       %d\n", cfg.WindowSize)
		fmt.Printf("NATS URL:          %s\n", config.GetNATSURL(cfg))
		fmt.Printf("Metrics Addr:      %s\n", config.GetMetricsAddr(cfg))

		return nil
	},
}

// promptForCredential checks envVar first and offers to use it, falling
// back to the existing saved value when there is one and to an
// interactive prompt otherwise — the same confirm-then-prompt shape the
// teacher uses for its API key and S3 credentials.
func promptForCredential(reader *bufio.Reader, envVar, label, existing string) string {
	if v := os.Getenv(envVar); v != "" {
		fmt.Printf("Found %s in environment variable. Use it? [Y/n]: ", label)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer == "" || answer == "y" || answer == "yes" {
			return v
		}
	}
	if existing != "" {
		return existing
	}
	fmt.Printf("Enter your %s: ", label)
	key, _ := reader.ReadString('\n')
	return strings.TrimSpace(key)
}

func splitAndUpper(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// maskString masks all but the last 4 characters of s, matching the
// teacher's config show masking convention.
func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// init registers the config subcommands with the root command.
func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
