package main

import (
	"os"

	"github.com/nixpig/jobshell/internal/jobmanager"
	"github.com/nixpig/jobshell/internal/shell"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// TODO: Inject version at build time.
const version = "0.0.1"

func rootCmd() *cobra.Command {
	v := viper.New()

	var configPath string

	c := &cobra.Command{
		Use:          "jobsh",
		Short:        "Interactive shell with foreground and background jobs",
		Example:      "  jobsh --log-level debug --log-file ~/.jobsh.log",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}

			cfg, err := loadConfig(v, configPath)
			if err != nil {
				return err
			}

			logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			logger.Debug(
				"starting shell",
				"config", v.ConfigFileUsed(),
				"log_level", cfg.logLevel,
			)

			notifier := jobmanager.NewNotifier(cmd.OutOrStdout(), logger)

			manager := jobmanager.NewManager(
				jobmanager.NewTable(),
				jobmanager.TerminalStreams(),
				notifier,
				logger,
			)

			return shell.New(
				manager,
				cmd.InOrStdin(),
				notifier,
				logger,
				cfg.showPrompt(term.IsTerminal(int(os.Stdin.Fd()))),
			).Run(cmd.Context())
		},
	}

	c.CompletionOptions.HiddenDefaultCmd = true

	c.Flags().StringVar(
		&configPath,
		"config",
		"",
		"Path to config file (default ~/.config/jobsh/config.yaml)",
	)

	c.Flags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	c.Flags().String("log-file", "", "Path to log file (default stderr)")
	c.Flags().String("prompt", promptAuto, "Show prompt (auto, always, never)")

	return c
}
