package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "USERDATA"

// commandContext carries state shared by all subcommands. Settings are
// resolved by viper from flags, USERDATA_* environment variables and the
// optional config file, in that order.
type commandContext struct {
	v          *viper.Viper
	configFile string
	log        *slog.Logger
}

func newCommandContext() *commandContext {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return &commandContext{v: v, log: slog.Default()}
}

func (c *commandContext) load(cmd *cobra.Command) error {
	if c.configFile != "" {
		c.v.SetConfigFile(c.configFile)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	log, err := newLogger(cmd.ErrOrStderr(), c.v.GetString("log_level"))
	if err != nil {
		return err
	}
	c.log = log
	return nil
}

// bind registers a flag under a viper key.
func (c *commandContext) bind(cmd *cobra.Command, key, flag string) {
	if err := c.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind %s: %v", flag, err))
	}
}

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "userdata",
		Short:         "Assemble and inspect cloud-init user-data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFile, "config", "c", "", "Configuration file path (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	if err := ctx.v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newBuildCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newTypesCommand())

	return rootCmd
}
