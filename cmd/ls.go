// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a view directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().Bool("bytes", false, "Print sizes in bytes")
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v, mgr, err := openView(cmd)
	if err != nil {
		return err
	}
	defer closeManager(ctx, mgr)

	p := "/"
	if len(args) == 1 {
		p = args[0]
	}
	entries, err := v.ReadDir(ctx, p)
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetBool("bytes")
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, e := range entries {
		size := humanize.IBytes(uint64(e.Size()))
		if raw {
			size = fmt.Sprint(e.Size())
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		// The name is the trailing cell, so it is left unaligned
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Mode(), size, e.ModTime().Format("Jan _2 15:04"), name)
	}
	return w.Flush()
}
