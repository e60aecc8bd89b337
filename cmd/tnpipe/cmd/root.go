package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datlevan/tnpipe/internal/launcher"
	"github.com/datlevan/tnpipe/pkg/logging"
	"github.com/datlevan/tnpipe/pkg/store"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tnpipe",
	Short: "Launcher for the Tay Nguyen data-retrieval pipeline",
	Long: `tnpipe starts the Tay Nguyen geospatial pipeline as a detached
background process, captures its output in a timestamped log file, records
each launch, and provides status, log and stop commands for it.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tnpipe/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "launcher log level: debug, info, warn, error")
}

// initConfig reads in config file and TNPIPE_* environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".tnpipe"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("tnpipe")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults match the historical shell launcher
	viper.SetDefault("pipeline.command", "python3")
	viper.SetDefault("pipeline.args", []string{"run_tay_nguyen_pipeline.py"})
	viper.SetDefault("pipeline.workdir", "")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.prefix", launcher.DefaultLogPrefix)
	viper.SetDefault("pid_file", launcher.DefaultPIDFile)
	viper.SetDefault("store.path", "")

	// Missing config file is fine; defaults and env carry it
	viper.ReadInConfig()
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// newLogger builds the launcher's own diagnostic logger
func newLogger() *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(logLevel), false)
}

// launchOptions resolves the effective launch options from config
func launchOptions() launcher.Options {
	return launcher.Options{
		Program:   viper.GetString("pipeline.command"),
		Args:      viper.GetStringSlice("pipeline.args"),
		Workdir:   viper.GetString("pipeline.workdir"),
		LogDir:    viper.GetString("log.dir"),
		LogPrefix: viper.GetString("log.prefix"),
		PIDFile:   viper.GetString("pid_file"),
	}
}

// storePath resolves the launch-record database path
func storePath() (string, error) {
	if p := viper.GetString("store.path"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".tnpipe")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("cannot create state directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "launches.db"), nil
}

// openStore opens the SQLite launch store
func openStore() (store.Store, error) {
	path, err := storePath()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(path)
}
