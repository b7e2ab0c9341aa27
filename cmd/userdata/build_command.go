package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	userdata "github.com/vivaneiona/cloudinit-userdata"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		output    string
		vars      []string
		filenames bool
		forceMIME bool
	)

	cmd := &cobra.Command{
		Use:   "build [path[@content/type]...]",
		Short: "Assemble files into one user-data payload",
		Long: `Assemble files into one user-data payload.

Each argument is a file (or - for stdin), optionally followed by @ and an
explicit content type. JSON, JSONC and TOML files become cloud-config,
.twig files are rendered as templates, and anything else is typed by its
first line.`,
		Example: `  userdata build setup.sh config.json
  userdata build boot.sh@text/x-shellscript-per-boot --format base64
  userdata build motd.twig --var host=web-1 -o user-data`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ctx.documentOptions()
			if err != nil {
				return err
			}
			target, err := userdata.ParseTarget(ctx.v.GetString("format"))
			if err != nil {
				return err
			}
			templateVars, err := parseVars(vars)
			if err != nil {
				return err
			}

			specs := make([]inputSpec, len(args))
			for i, arg := range args {
				specs[i] = parseInputSpec(arg)
			}
			inputs, err := loadInputs(cmd.Context(), specs, loadOptions{
				filenames: filenames,
				vars:      templateVars,
				stdin:     cmd.InOrStdin(),
			}, ctx.v.GetInt("concurrency"))
			if err != nil {
				return err
			}

			doc := userdata.New(opts...)
			for _, in := range inputs {
				if _, err := doc.Add(in.input, in.opts...); err != nil {
					return fmt.Errorf("%s: %w", in.spec.path, err)
				}
			}

			var renderOpts []userdata.RenderOption
			if forceMIME {
				renderOpts = append(renderOpts, userdata.WithForceMIME())
			}
			res, err := doc.Render(target, renderOpts...)
			if err != nil {
				return err
			}
			ctx.log.Info("Built user-data",
				"parts", doc.Count(),
				"raw_size", humanize.IBytes(uint64(res.RawSize)),
				"size", humanize.IBytes(uint64(len(res.Data))),
				"compressed", res.Compressed)

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(res.Data)
				return err
			}
			return os.WriteFile(output, res.Data, 0o600)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the payload to a file instead of stdout")
	cmd.Flags().String("format", "text", "Output form: text, bytes or base64")
	cmd.Flags().String("compress", "auto", "Compression: auto, always or never")
	cmd.Flags().Int("max-bytes", userdata.DefaultMaxBytes, "Size ceiling before base64 encoding, 0 for none")
	cmd.Flags().String("default-type", "", "Content type for files with no directive")
	cmd.Flags().String("boundary", "sequential", "Multipart boundary: sequential, random or a fixed token")
	cmd.Flags().Int("concurrency", 0, "Files read in parallel, 0 for one per CPU")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Template variable key=value (repeatable)")
	cmd.Flags().BoolVar(&filenames, "filenames", false, "Use file names as part identifiers")
	cmd.Flags().BoolVar(&forceMIME, "force-mime", false, "Wrap a single part in MIME headers")

	ctx.bind(cmd, "format", "format")
	ctx.bind(cmd, "compress", "compress")
	ctx.bind(cmd, "max_bytes", "max-bytes")
	ctx.bind(cmd, "default_type", "default-type")
	ctx.bind(cmd, "boundary", "boundary")
	ctx.bind(cmd, "concurrency", "concurrency")

	return cmd
}

// documentOptions maps the resolved settings onto document options.
func (c *commandContext) documentOptions() ([]userdata.Option, error) {
	mode, err := userdata.ParseCompressMode(c.v.GetString("compress"))
	if err != nil {
		return nil, err
	}
	opts := []userdata.Option{
		userdata.WithCompress(mode),
		userdata.WithMaxBytes(c.v.GetInt("max_bytes")),
		userdata.WithDefaultContentType(c.v.GetString("default_type")),
		userdata.WithLogger(c.log),
	}
	if c.v.IsSet("compression_level") {
		opts = append(opts, userdata.WithCompressionLevel(c.v.GetInt("compression_level")))
	}

	switch b := c.v.GetString("boundary"); strings.ToLower(b) {
	case "", "sequential":
		opts = append(opts, userdata.WithBoundary(userdata.SequentialBoundary))
	case "random":
		opts = append(opts, userdata.WithBoundary(userdata.RandomBoundary))
	default:
		opts = append(opts, userdata.WithBoundary(userdata.FixedBoundary(b)))
	}
	return opts, nil
}
