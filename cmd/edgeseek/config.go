package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var printDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the config file and report the first problem",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if _, err := config.LoadFromPath(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "config: ok")
		return nil
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfigPrint,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configExplainCmd = &cobra.Command{
	Use:   "explain <yaml.path>",
	Short: "Show an effective value and where it was set",
	Example: `  edgeseek config explain readout
  edgeseek config explain edges.left.sensitivity`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigExplain,
}

func init() {
	configPrintCmd.Flags().BoolVar(&printDefaults, "defaults", false, "Print built-in defaults (no files)")
	configCmd.AddCommand(configValidateCmd, configPrintCmd, configPathCmd, configExplainCmd)
}

func runConfigPrint(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg := config.DefaultConfig()
	header := "# defaults"
	if !printDefaults {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		res, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		cfg = res.Config
		header = "# effective config: " + path
		if res.File == "" {
			header += " (not found, defaults)"
		}
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, heading(header))
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigExplain(cmd *cobra.Command, args []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}

	value, src, err := config.Explain(res, args[0])
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path: %s\n", args[0])
	fmt.Fprintf(out, "source: %s\n", formatSource(src))
	fmt.Fprintf(out, "value:\n%s", string(data))
	return nil
}

func formatSource(src config.Source) string {
	if src.Kind != config.SourceFile {
		return "default"
	}
	if src.File == "" {
		return "file"
	}
	if src.Line > 0 {
		return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
	}
	return "file:" + src.File
}

// heading renders s in bold when stdout is a terminal.
func heading(s string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return s
	}
	return "\x1b[1m" + s + "\x1b[0m"
}
