// Package compile implements the `tinqer-cli compile` subcommand: read
// a lambda-chain source string plus a JSON params object, compile it
// against a chosen dialect, and print the resulting SQL and bound
// parameters.
package compile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tinqerjs/tinqer-go"
	"github.com/tinqerjs/tinqer-go/internal/dialect"
)

// Command returns the `compile` cobra command. cfg supplies the
// default dialect when --dialect is not given.
func Command(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a lambda-chain source string into SQL",
		Long: `Compile reads a Tinqer lambda-chain source string and a JSON params
object, and prints the SQL text and bound parameters a compiled
statement produces.

Source is read from --file, or from stdin when --file is omitted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, cfg)
		},
	}

	cmd.Flags().StringP("dialect", "d", "", "target SQL dialect: postgres or sqlite (default from TINQER_DIALECT)")
	cmd.Flags().StringP("file", "f", "", "path to a file containing the lambda-chain source (default: stdin)")
	cmd.Flags().StringP("params", "p", "{}", "JSON object of bound parameters")
	cmd.Flags().StringArray("table", nil, "table=col1,col2,... declaration, repeatable")
	addExecuteFlags(cmd)

	return cmd
}

func run(cmd *cobra.Command, cfg *viper.Viper) error {
	dialectName, _ := cmd.Flags().GetString("dialect")
	if dialectName == "" {
		dialectName = cfg.GetString("dialect")
	}

	d, err := resolveDialect(dialectName)
	if err != nil {
		return err
	}

	source, err := readSource(cmd)
	if err != nil {
		return err
	}

	params, err := readParams(cmd)
	if err != nil {
		return err
	}

	ctx, err := buildContext(cmd)
	if err != nil {
		return err
	}

	result, err := tinqer.Compile(d, ctx, source, params)
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	execute, _ := cmd.Flags().GetBool("execute")
	if execute {
		return runExecute(cmd, dialectName, result)
	}

	return printResult(cmd, result)
}

func resolveDialect(name string) (dialect.Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pg":
		return dialect.Postgres, nil
	case "sqlite", "sqlite3":
		return dialect.SQLite, nil
	default:
		return nil, fmt.Errorf("unrecognized dialect %q (want postgres or sqlite)", name)
	}
}

func readSource(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading source from stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading source file %q: %w", path, err)
	}

	return string(data), nil
}

func readParams(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString("params")

	params := map[string]any{}
	if raw == "" {
		return params, nil
	}

	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("parsing --params as JSON: %w", err)
	}

	return params, nil
}

func buildContext(cmd *cobra.Command) (*tinqer.Context, error) {
	declarations, _ := cmd.Flags().GetStringArray("table")

	ctx := tinqer.NewContext()

	for _, decl := range declarations {
		table, columns, err := splitTableDecl(decl)
		if err != nil {
			return nil, err
		}

		ctx.Table(table, columns)
	}

	return ctx, nil
}

func printResult(cmd *cobra.Command, result *tinqer.CompileResult) error {
	encoded, err := json.MarshalIndent(map[string]any{
		"sql":    result.SQL,
		"params": result.Params,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

	return err
}
