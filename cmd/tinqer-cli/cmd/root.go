package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tinqerjs/tinqer-go/cmd/tinqer-cli/cmd/compile"
	"github.com/tinqerjs/tinqer-go/constants"
)

var (
	Version string
	Commit  string
	Date    string
)

// cfg holds the CLI-wide defaults bound from TINQER_-prefixed
// environment variables: the dialect a bare `compile` invocation
// targets when --dialect is not given. The logger's level is not bound
// here; internal/log reads TINQER_LOG_LEVEL directly.
var cfg = viper.NewWithOptions(
	viper.EnvKeyReplacer(strings.NewReplacer(constants.Dot, constants.Underscore)),
)

var rootCmd = &cobra.Command{
	Use:   "tinqer-cli",
	Short: "Tinqer lambda-chain compiler CLI",
	Long:  `A command-line tool that compiles a Tinqer lambda-chain source string into parameterized SQL.`,
}

// Execute runs the root command.
func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(Banner + fmt.Sprintf("\nVersion: %s | Commit: %s | Built: %s\n", Version, Commit, Date))

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}

func init() {
	cfg.SetEnvPrefix(constants.EnvKeyPrefix)
	cfg.AllowEmptyEnv(true)
	cfg.AutomaticEnv()
	cfg.SetDefault("dialect", "postgres")

	rootCmd.AddCommand(compile.Command(cfg))
}
