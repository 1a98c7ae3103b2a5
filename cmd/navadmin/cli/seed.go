package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"web3nav/internal/service"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load default data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sections",
		Short: "Create the default sections that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := e.sections.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range service.DefaultSections {
				fmt.Fprintf(out, "  %-10s %s\n", s.Key, s.Title)
			}
			fmt.Fprintf(out, "Ensured %d default sections\n", n)
			return nil
		},
	})

	return cmd
}
