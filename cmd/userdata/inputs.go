package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"

	userdata "github.com/vivaneiona/cloudinit-userdata"
)

// inputSpec is one positional argument of build: a path, or "-" for
// stdin, optionally followed by "@content/type".
type inputSpec struct {
	path        string
	contentType string
}

func parseInputSpec(arg string) inputSpec {
	if i := strings.LastIndex(arg, "@"); i > 0 && strings.Contains(arg[i+1:], "/") {
		return inputSpec{path: arg[:i], contentType: arg[i+1:]}
	}
	return inputSpec{path: arg}
}

// loadedInput is a file turned into a document input.
type loadedInput struct {
	spec  inputSpec
	input userdata.Input
	opts  []userdata.AddOption
}

type loadOptions struct {
	filenames bool
	vars      map[string]any
	stdin     io.Reader
}

// loadInputs reads every spec concurrently and returns the inputs in
// argument order.
func loadInputs(ctx context.Context, specs []inputSpec, lo loadOptions, concurrency int) ([]loadedInput, error) {
	out := make([]loadedInput, len(specs))
	r := newRunner(ctx, concurrency)
	for i, spec := range specs {
		r.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in, err := loadInput(spec, lo)
			if err != nil {
				return err
			}
			out[i] = in
			return nil
		})
	}
	if err := r.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func loadInput(spec inputSpec, lo loadOptions) (loadedInput, error) {
	data, err := readSource(spec.path, lo.stdin)
	if err != nil {
		return loadedInput{}, err
	}

	li := loadedInput{spec: spec}
	if spec.contentType != "" {
		li.opts = append(li.opts, userdata.WithContentType(spec.contentType))
	}
	if lo.filenames && spec.path != "-" {
		li.opts = append(li.opts, userdata.WithIdentifier(filepath.Base(spec.path)))
	}

	name := filepath.Base(spec.path)
	switch strings.ToLower(filepath.Ext(spec.path)) {
	case ".json", ".jsonc":
		v, err := userdata.DecodeJSON(jsonc.ToJSON(data))
		if err != nil {
			return loadedInput{}, fmt.Errorf("%s: %w", spec.path, err)
		}
		li.input = userdata.Structured{Value: v}
	case ".toml":
		var v map[string]any
		if err := toml.Unmarshal(data, &v); err != nil {
			return loadedInput{}, fmt.Errorf("%s: %w", spec.path, err)
		}
		li.input = userdata.Structured{Value: v}
	case ".twig":
		tpl, err := userdata.NewTemplates(userdata.WithTemplates(map[string]string{name: string(data)}))
		if err != nil {
			return loadedInput{}, err
		}
		li.input = tpl.Input(name, lo.vars)
		if lo.filenames {
			li.opts = append(li.opts, userdata.WithIdentifier(strings.TrimSuffix(name, ".twig")))
		}
	default:
		li.input = userdata.Bytes(data)
	}
	return li, nil
}

func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// parseVars turns key=value pairs into template variables.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[k] = v
	}
	return vars, nil
}
