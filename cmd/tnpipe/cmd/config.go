package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Commands for inspecting and bootstrapping the tnpipe configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long:  `Writes a default configuration to $HOME/.tnpipe/config.yaml (or the --config path).`,
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
}

// fileConfig mirrors the config file layout
type fileConfig struct {
	Pipeline struct {
		Command string   `yaml:"command"`
		Args    []string `yaml:"args"`
		Workdir string   `yaml:"workdir,omitempty"`
	} `yaml:"pipeline"`
	Log struct {
		Dir    string `yaml:"dir,omitempty"`
		Prefix string `yaml:"prefix"`
	} `yaml:"log"`
	PIDFile string `yaml:"pid_file"`
	Store   struct {
		Path string `yaml:"path,omitempty"`
	} `yaml:"store"`
}

func effectiveConfig() fileConfig {
	var c fileConfig
	c.Pipeline.Command = viper.GetString("pipeline.command")
	c.Pipeline.Args = viper.GetStringSlice("pipeline.args")
	c.Pipeline.Workdir = viper.GetString("pipeline.workdir")
	c.Log.Dir = viper.GetString("log.dir")
	c.Log.Prefix = viper.GetString("log.prefix")
	c.PIDFile = viper.GetString("pid_file")
	c.Store.Path = viper.GetString("store.path")
	return c
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(effectiveConfig())
	if err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Printf("# config file: %s\n", used)
	} else {
		fmt.Println("# no config file found, showing defaults")
	}
	os.Stdout.Write(data)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".tnpipe", "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(effectiveConfig())
	if err != nil {
		return err
	}
	header := []byte("# tnpipe configuration\n# pipeline.command/args: what 'tnpipe start' launches\n")
	if err := os.WriteFile(path, append(header, data...), 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
