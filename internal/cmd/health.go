package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query a running server's health endpoint",
	Long: `Query the operational endpoint of a running server and report whether
it is healthy. The server must have been started with --ops.`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().String("addr", "", "ops endpoint address (defaults to the configured ops.host:ops.port)")
	healthCmd.Flags().Duration("timeout", 5*time.Second, "request timeout")
}

func runHealth(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		addr = cfg.Ops.Addr()
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get("http://" + addr + "/health")
	if err != nil {
		return fmt.Errorf("ops endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("unexpected response from %s: %w", addr, err)
	}

	if resp.StatusCode != http.StatusOK || health.Status != "healthy" {
		fmt.Printf("%s %s reports %q\n", color.RedString("✗"), addr, health.Status)
		return fmt.Errorf("server unhealthy")
	}

	fmt.Printf("%s %s healthy (version %s)\n", color.GreenString("✓"), addr, health.Version)
	return nil
}
