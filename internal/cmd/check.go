package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Jacoblightning/simplewebserver/internal/limiter"
	"github.com/Jacoblightning/simplewebserver/internal/resolve"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and document root",
	Long: `Validate the effective configuration without starting the server.

Checks that the document root exists, that the default document is present,
audits the blacklist, and pings Redis when it is the configured limiter
store. Exits non-zero when any check fails.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("write-config", "", "write the effective configuration as YAML to this path ('-' for stdout)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	pass := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("%s configuration: %v\n", fail("✗"), err)
		return fmt.Errorf("configuration invalid")
	}
	fmt.Printf("%s configuration valid\n", pass("✓"))
	fmt.Printf("%s listen address %s\n", pass("✓"), cfg.Server.Addr())

	failures := 0

	rsv, err := resolve.New(cfg.Server.Root, cfg.Server.DefaultDocument, cfg.Blacklist)
	if err != nil {
		fmt.Printf("%s document root: %v\n", fail("✗"), err)
		failures++
	} else {
		fmt.Printf("%s document root %s\n", pass("✓"), rsv.Root())

		if _, err := os.Stat(filepath.Join(rsv.Root(), cfg.Server.DefaultDocument)); err != nil {
			fmt.Printf("%s default document %s not found (requests for / will 404)\n", warn("!"), cfg.Server.DefaultDocument)
		} else {
			fmt.Printf("%s default document %s present\n", pass("✓"), cfg.Server.DefaultDocument)
		}

		for _, name := range cfg.Blacklist {
			if _, err := os.Stat(filepath.Join(rsv.Root(), name)); err != nil {
				fmt.Printf("%s blacklist entry %q not present under root\n", warn("!"), name)
			}
		}
	}

	if cfg.RateLimit.Limit == 0 {
		fmt.Printf("%s rate limiting disabled\n", warn("!"))
	} else {
		fmt.Printf("%s rate limit %d requests per %s, ban %s\n",
			pass("✓"), cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.Penalty)
	}

	if cfg.RateLimit.Store == "redis" {
		rs, err := limiter.NewRedisStore(cfg.RateLimit.Redis.Addr, cfg.RateLimit.Redis.Password, cfg.RateLimit.Redis.DB)
		if err != nil {
			fmt.Printf("%s redis: %v\n", fail("✗"), err)
			failures++
		} else {
			_ = rs.Close()
			fmt.Printf("%s redis reachable at %s\n", pass("✓"), cfg.RateLimit.Redis.Addr)
		}
	}

	writePath, err := cmd.Flags().GetString("write-config")
	if err != nil {
		return err
	}
	if writePath != "" {
		if err := writeEffectiveConfig(writePath); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	return nil
}

// writeEffectiveConfig dumps everything viper resolved, in config file form.
func writeEffectiveConfig(path string) error {
	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Wrote effective configuration to %s\n", path)
	return nil
}
