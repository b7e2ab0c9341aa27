package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	userdata "github.com/vivaneiona/cloudinit-userdata"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [path|-]",
		Short: "List the parts of a user-data payload",
		Long: `List the parts of a user-data payload.

Text, gzip and base64 payloads are accepted, so the output of build and
the user-data stored by a cloud provider can be read back directly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readSource(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			decoded, err := userdata.Inspect(data)
			if err != nil {
				return err
			}
			ctx.log.Debug("Inspected user-data", "parts", len(decoded.Parts), "compressed", decoded.Compressed, "base64", decoded.Base64)

			out := cmd.OutOrStdout()
			switch format := strings.ToLower(ctx.v.GetString("inspect.format")); format {
			case "table", "":
				fmt.Fprintln(out, renderPartsTable(decoded.Parts))
				fmt.Fprintln(out, describeEncoding(decoded))
				return nil
			case "tree":
				return writeDescription(out, decoded.Parts, userdata.DescribeText)
			case "json":
				return writeDescription(out, decoded.Parts, userdata.DescribeJSON)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().String("format", "table", "Output format: table, tree or json")
	ctx.bind(cmd, "inspect.format", "format")
	return cmd
}

func writeDescription(w io.Writer, parts []userdata.Part, format userdata.DescribeFormat) error {
	s, err := userdata.Describe(parts, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(s, "\n"))
	return err
}

func renderPartsTable(parts []userdata.Part) string {
	rows := make([][]string, 0, len(parts))
	for _, s := range userdata.Summarize(parts) {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			s.Identifier,
			s.ContentType,
			s.Directive,
			humanize.IBytes(uint64(s.Size)),
		})
	}
	return renderTable(
		[]string{"#", "Identifier", "Content-Type", "Directive", "Size"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

// describeEncoding summarizes the outer layers removed while decoding.
func describeEncoding(d userdata.Decoded) string {
	var layers []string
	if d.Base64 {
		layers = append(layers, "base64")
	}
	if d.Compressed {
		layers = append(layers, "gzip")
	}
	if d.Multipart {
		layers = append(layers, fmt.Sprintf("multipart (boundary %q)", d.Boundary))
	} else {
		layers = append(layers, "single part")
	}
	return fmt.Sprintf("%s, %s raw", strings.Join(layers, ", "), humanize.IBytes(uint64(d.RawSize)))
}
