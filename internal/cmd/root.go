// Package cmd implements the acp command line: configuration resolution and
// a simulation runner driving the scheduler with synthetic work.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viant/acp"
)

const envPrefix = "ACP"

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "acp",
		Short:         "Adaptive concurrent task scheduler",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("config", "", "configuration file URL (yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().Int("workers", 0, "number of workers")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("processor.workers", root.PersistentFlags().Lookup("workers"))

	root.AddCommand(newRunCmd(v))
	root.AddCommand(newConfigCmd(v))
	return root
}

// resolveConfig loads the config file (if any) and applies flag and ACP_*
// environment overrides on top.
func resolveConfig(ctx context.Context, v *viper.Viper) (*acp.Config, error) {
	cfg := acp.DefaultConfig()
	if URL := v.GetString("config"); URL != "" {
		loaded, err := acp.LoadConfig(ctx, URL)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if v.IsSet("processor.workers") {
		cfg.Processor.Workers = v.GetInt("processor.workers")
	}
	if v.IsSet("processor.requeueDelay") {
		cfg.Processor.RequeueDelay = v.GetDuration("processor.requeueDelay")
	}
	if v.IsSet("registry.livenessWindow") {
		cfg.Registry.LivenessWindow = v.GetDuration("registry.livenessWindow")
	}
	if v.IsSet("registry.strictType") {
		cfg.Registry.StrictType = v.GetBool("registry.strictType")
	}
	if v.IsSet("heartbeat.interval") {
		cfg.Heartbeat.Interval = v.GetDuration("heartbeat.interval")
	}
	if level := v.GetString("logging.level"); level != "" {
		cfg.Logging.Level = level
	}
	if encoding := v.GetString("logging.encoding"); encoding != "" {
		cfg.Logging.Encoding = encoding
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
