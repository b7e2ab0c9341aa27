package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	userdata "github.com/vivaneiona/cloudinit-userdata"
)

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the content types and directives cloud-init recognises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(userdata.PartTypes()))
			for _, pt := range userdata.PartTypes() {
				directives := strings.Join(pt.Directives, ", ")
				if directives == "" {
					directives = "(MIME header only)"
				}
				rows = append(rows, []string{pt.ContentType, directives})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Content-Type", "Directives"}, rows, nil))
			return err
		},
	}
}
