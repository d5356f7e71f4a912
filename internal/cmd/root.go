package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Jacoblightning/simplewebserver/internal/config"
	"github.com/Jacoblightning/simplewebserver/internal/observability"
)

const binaryName = "simplewebserver"

var (
	cfgFile  string
	verbose  bool
	zerologs bool

	// cliLog is for command-line feedback only. The serving path builds its
	// own logger from the resolved configuration.
	cliLog = zap.NewNop()

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   binaryName,
	Short: "A simple rate-limited static file web server",
	Long: `A small web server that serves files from a document root over raw
HTTP GET, with per-client rate limiting and a file blacklist.

Use the subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/simplewebserver/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().BoolVar(&zerologs, "zerologs", false, "disable request logging entirely")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs as JSON to this file (rotated)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "zerologs")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.quiet", rootCmd.PersistentFlags().Lookup("zerologs"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cliLog = observability.NewCLILogger(verbose)

	if cfgFile != "" {
		// Use config file from flag
		viper.SetConfigFile(cfgFile)
	} else {
		if configDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(filepath.Join(configDir, binaryName))
		} else if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, "."+binaryName))
		}

		// Also search in current directory
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables with the SIMPLEWEBSERVER_ prefix
	config.BindEnv(viper.GetViper())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		cliLog.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	} else {
		// It's OK if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cliLog.Debug("No config file found, using defaults and environment variables")
		} else {
			cliLog.Warn("Error reading config file", zap.Error(err))
		}
	}

	config.SetDefaults(viper.GetViper())
}

// loadConfig materializes the typed configuration from everything viper has
// seen so far. The verbose flag wins over any configured log level.
func loadConfig() (*config.Config, error) {
	v := viper.GetViper()
	if verbose {
		v.Set("logging.level", "debug")
	}
	return config.FromViper(v)
}
