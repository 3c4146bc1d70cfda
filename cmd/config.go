package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/egeskov/localenv/internal/config"
	"github.com/egeskov/localenv/pkg/logging"
	"github.com/egeskov/localenv/pkg/prompt"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configKeys = []string{"environments-dir", "docker-host", "query-timeout", "concurrency", "log-level"}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage global localenv configuration",
	Long: `Manage global settings stored in ~/.localenv/config.yaml.

Available keys:
  environments-dir  Directory holding one sub-directory per environment
  docker-host       Docker daemon address (default: DOCKER_HOST or socket discovery)
  query-timeout     Timeout for each environment's Docker query (e.g. 10s)
  concurrency       Number of environments queried in parallel
  log-level         Diagnostic log level: debug, info, warn, error

Examples:
  localenv config show
  localenv config init
  localenv config set environments-dir ~/sites
  localenv config set query-timeout 5s
  localenv config get docker-host
  localenv config unset docker-host`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all configuration values",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key: %s\nValid keys: %s", key, strings.Join(configKeys, ", "))
}

// setConfigValue validates value and stores it under key
func setConfigValue(cfg *config.GlobalConfig, key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case "environments-dir":
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return err
		}
		if !config.DirExists(expanded) {
			fmt.Printf("%s Directory %s does not exist yet, saving anyway\n", color.YellowString("⚠"), expanded)
		}
		cfg.EnvironmentsDir = expanded

	case "docker-host":
		if value != "" && !strings.Contains(value, "://") {
			return fmt.Errorf("docker-host must be a URL such as unix:///var/run/docker.sock or tcp://host:2375")
		}
		cfg.DockerHost = value

	case "query-timeout":
		d, err := config.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.QueryTimeout = d.String()

	case "concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("concurrency must be a positive integer, got %q", value)
		}
		cfg.Concurrency = n

	case "log-level":
		level := strings.ToLower(value)
		valid := false
		for _, l := range prompt.LogLevels {
			if l == level {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("log-level must be one of %s", strings.Join(prompt.LogLevels, ", "))
		}
		cfg.LogLevel = level

	default:
		return unknownKeyError(key)
	}

	return nil
}

// getConfigValue returns the effective value for key
func getConfigValue(cfg *config.GlobalConfig, key string) (string, error) {
	switch key {
	case "environments-dir":
		return cfg.EnvironmentsDir, nil
	case "docker-host":
		return cfg.DockerHost, nil
	case "query-timeout":
		return cfg.Timeout().String(), nil
	case "concurrency":
		return strconv.Itoa(cfg.Workers()), nil
	case "log-level":
		return cfg.Level(), nil
	default:
		return "", unknownKeyError(key)
	}
}

func unsetConfigValue(cfg *config.GlobalConfig, key string) error {
	defaults := config.Default()

	switch key {
	case "environments-dir":
		cfg.EnvironmentsDir = defaults.EnvironmentsDir
	case "docker-host":
		cfg.DockerHost = ""
	case "query-timeout":
		cfg.QueryTimeout = defaults.QueryTimeout
	case "concurrency":
		cfg.Concurrency = defaults.Concurrency
	case "log-level":
		cfg.LogLevel = defaults.LogLevel
	default:
		return unknownKeyError(key)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	stored, _ := getConfigValue(cfg, key)
	fmt.Printf("%s %s set to: %s\n", color.GreenString("✓"), key, stored)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Println("(not set)")
	} else {
		fmt.Println(value)
	}
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := args[0]

	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	if err := unsetConfigValue(cfg, key); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("%s %s unset\n", color.GreenString("✓"), key)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	configPath, _ := config.GlobalConfigPath()
	fmt.Printf("\n%s Global configuration (%s)\n\n", green("⚙"), configPath)

	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		if value == "" {
			fmt.Printf("  %-17s %s\n", key+":", yellow("(not set)"))
		} else {
			fmt.Printf("  %-17s %s\n", key+":", cyan(value))
		}
	}

	if dir, err := cfg.ResolvedEnvironmentsDir(); err == nil && !config.DirExists(dir) {
		fmt.Printf("\n%s Environments directory %s does not exist\n", yellow("⚠"), dir)
	}

	fmt.Println()
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		return err
	}

	dir, err := prompt.InputString("Environments directory:", cfg.EnvironmentsDir)
	if err != nil {
		return err
	}

	timeout, err := prompt.InputValidated("Per-environment query timeout:", cfg.Timeout().String(), func(s string) error {
		_, err := config.ParseDuration(s)
		return err
	})
	if err != nil {
		return err
	}

	level, err := prompt.SelectLogLevel(cfg.Level())
	if err != nil {
		return err
	}

	for key, value := range map[string]string{
		"environments-dir": dir,
		"query-timeout":    timeout,
		"log-level":        level,
	} {
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
	}

	path, _ := config.GlobalConfigPath()
	save, err := prompt.Confirm(fmt.Sprintf("Write %s?", path), true)
	if err != nil {
		return err
	}
	if !save {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := cfg.Save(); err != nil {
		return err
	}
	logging.Debug("config", "saved %s", path)
	fmt.Printf("%s Configuration saved\n", color.GreenString("✓"))
	return nil
}
