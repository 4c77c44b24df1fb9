/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package version implements the version command.
package version

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bennypowers.dev/resolvekit/internal/version"
)

// Cmd prints the build information of the running binary.
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the resolvekit version with the commit, commit time and Go toolchain
it was built from. Values not stamped at link time come from the VCS data
the Go toolchain embeds.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	Cmd.Flags().Bool("short", false, "Print only the version")
}

func run(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	short, _ := cmd.Flags().GetBool("short")
	return write(cmd.OutOrStdout(), version.Info(), format, short)
}

func write(w io.Writer, info version.BuildInfo, format string, short bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, info.Version)
		return err
	case format == "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case format == "text":
		return writeText(w, info)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, info version.BuildInfo) error {
	if _, err := fmt.Fprintf(w, "resolvekit %s\n", info); err != nil {
		return err
	}
	rows := [][2]string{
		{"commit", info.GitCommit},
		{"built", info.BuildTime},
		{"go", info.GoVersion},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-7s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}
