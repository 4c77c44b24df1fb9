/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for resolvekit.
package cmd

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"bennypowers.dev/resolvekit/cmd/emit"
	"bennypowers.dev/resolvekit/cmd/graph"
	"bennypowers.dev/resolvekit/cmd/lsp"
	"bennypowers.dev/resolvekit/cmd/mcp"
	"bennypowers.dev/resolvekit/cmd/resolve"
	"bennypowers.dev/resolvekit/cmd/version"
	"bennypowers.dev/resolvekit/engine"
	"bennypowers.dev/resolvekit/internal/logger"
)

// EnvPrefix prefixes the environment variables that set persistent flags,
// e.g. RESOLVEKIT_ROOT or RESOLVEKIT_FS.
const EnvPrefix = "RESOLVEKIT"

var rootCmd = &cobra.Command{
	Use:   "resolvekit",
	Short: "Resolve module requests and emit build output",
	Long: `resolvekit resolves module requests the way a JavaScript bundler does,
through a pluggable filesystem bridge, and writes resolved files to an output directory.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("root", "r", ".", "Project root directory")
	rootCmd.PersistentFlags().String("fs", "", "Host filesystem: os, afero, sandbox (default: config fs, then os)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every resolver and probe")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(emit.Cmd)
	rootCmd.AddCommand(graph.Cmd)
	rootCmd.AddCommand(lsp.Cmd)
	rootCmd.AddCommand(mcp.Cmd)
	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

// setup loads .env, binds persistent flags to viper and configures logging.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	switch {
	case viper.GetBool("quiet"):
		logger.SetLevel(zapcore.ErrorLevel)
	case viper.GetBool("verbose"):
		logger.SetLevel(zapcore.DebugLevel)
	}
	engine.SetLogger(logger.L())
	return nil
}
