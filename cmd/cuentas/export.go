package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cuentas/internal/core"
	"cuentas/internal/export"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCSVCmd)
	exportCSVCmd.Flags().Int("year", 0, "Limit the consolidated history to one year")
	exportCSVCmd.Flags().StringP("out", "o", "", "Output file (defaults to the download name; - for stdout)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records",
}

var exportCSVCmd = &cobra.Command{
	Use:       "csv {agua|electricidad|internet|consolidado|usuarios}",
	Short:     "Write a CSV export",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"agua", "electricidad", "internet", "consolidado", "usuarios"},
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		out, _ := cmd.Flags().GetString("out")

		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		var (
			filename string
			write    func(io.Writer) error
		)
		switch args[0] {
		case "consolidado":
			filename = export.ConsolidatedFilename
			write = func(w io.Writer) error { return export.WriteConsolidated(w, a.ledger.History(year)) }
		case "usuarios":
			users, err := a.auth.ListUsers(ctx)
			if err != nil {
				return err
			}
			filename = export.UsersFilename
			write = func(w io.Writer) error { return export.WriteUsers(w, users) }
		default:
			u, err := core.ParseUtility(args[0])
			if err != nil {
				return err
			}
			filename = export.Filename(u)
			snap := a.ledger.Snapshot()
			write = func(w io.Writer) error {
				switch u {
				case core.Water:
					return export.WriteWater(w, snap.Water)
				case core.Electricity:
					return export.WriteElectricity(w, snap.Electricity)
				default:
					return export.WriteInternet(w, snap.Internet)
				}
			}
		}

		if out == "-" {
			return write(cmd.OutOrStdout())
		}
		if out == "" {
			out = filename
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
		return nil
	},
}
