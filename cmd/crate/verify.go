package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newVerifyCmd(c *cli) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Check that an archive decodes cleanly",
		Long: `Decode the whole archive without writing anything. Container entries are
listed, and the BLAKE3 digest of the decoded stream is printed so two
archives can be compared by content.

Examples:
  crate verify site.tar.zst
  crate verify notes.txt.bz2 --quiet`,
		Args: rangeArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.pipeline("Verify").Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !quiet {
				for _, e := range res.Entries {
					name := e.Path
					if e.Linkname != "" {
						name += " -> " + e.Linkname
					}
					fmt.Fprintf(c.stdout, "  %-7s %s %10s  %s\n", e.Kind, e.Mode, humanize.IBytes(uint64(e.Size)), name)
				}
			}
			fmt.Fprintf(c.stdout, "Format:   %s\n", res.Format)
			if len(res.Entries) > 0 {
				fmt.Fprintf(c.stdout, "Entries:  %d\n", len(res.Entries))
			}
			fmt.Fprintf(c.stdout, "Archive:  %s\n", humanize.IBytes(uint64(res.ArchiveBytes)))
			fmt.Fprintf(c.stdout, "Decoded:  %s\n", humanize.IBytes(uint64(res.DecodedBytes)))
			fmt.Fprintf(c.stdout, "BLAKE3:   %s\n", res.Digest)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not list container entries")
	return cmd
}
