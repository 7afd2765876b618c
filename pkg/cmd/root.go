package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/config"
)

var (
	settings = config.New()
	envFile  string
)

var RootCmd = &cobra.Command{
	Use:           RootCmdName,
	Short:         RootCmdShort,
	Long:          RootCmdLong,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "path to a .env file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, text)")
	flags.String("environment", "", "deployment environment (development, production)")
	_ = settings.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = settings.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = settings.BindPFlag(config.KeyEnvironment, flags.Lookup("environment"))

	RootCmd.AddCommand(ServeCmd, ListingsCmd, VersionCmd)
}
