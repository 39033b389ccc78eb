package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/hanpama/httpgraph/internal/blueprint"
	"github.com/hanpama/httpgraph/internal/httprt"
	"github.com/hanpama/httpgraph/internal/httptp"
	"github.com/hanpama/httpgraph/internal/reqid"
	"github.com/hanpama/httpgraph/internal/valid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errCheckFailed = errors.New("check failed")

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <config>",
		Short: "Validate a configuration and report every problem found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := transcode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.IsValid() {
				printCauses(out, args[0], res.Causes())
				return errCheckFailed
			}
			bp := res.Value()
			color.New(color.FgGreen).Fprintf(out, "ok: %s", args[0])
			fmt.Fprintf(out, " (%d definitions, %d endpoints)\n", len(bp.Definitions), len(bp.Endpoints))
			return nil
		},
	}
}

func printCauses(w io.Writer, source string, causes []valid.Cause) {
	color.New(color.FgRed, color.Bold).Fprintf(w, "%s: %d problem(s)\n", source, len(causes))
	gray := color.New(color.FgHiBlack)
	for _, c := range causes {
		fmt.Fprintf(w, "- %s", c.Message)
		if len(c.Trace) > 0 {
			gray.Fprintf(w, " [%s]", strings.Join(c.Trace, "."))
		}
		fmt.Fprintln(w)
	}
}

func newCompileCommand(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "compile <config>",
		Short: "Print the blueprint of a configuration as GraphQL SDL or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var data []byte
			switch format {
			case "sdl":
				data = []byte(blueprint.Render(bp))
			case "json":
				data, err = json.MarshalIndent(bp, "", "  ")
				if err != nil {
					return err
				}
				data = append(data, '\n')
			default:
				return fmt.Errorf("unknown format %q (want sdl or json)", format)
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&format, "format", "sdl", "output format: sdl or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func newCallCommand(a *app) *cobra.Command {
	var argPairs, sourcePairs []string
	cmd := &cobra.Command{
		Use:   "call <config> <Type.field>",
		Short: "Resolve one field against its upstream and print the result as JSON",
		Long: `call resolves a single field occurrence the way the runtime would: literals and
parent values are resolved in place, HTTP fields go through one batch wave.
Values given with --arg and --source are parsed as JSON, falling back to
plain strings.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			typeName, fieldName, ok := strings.Cut(args[1], ".")
			if !ok || typeName == "" || fieldName == "" {
				return fmt.Errorf("field must be written as Type.field, got %q", args[1])
			}
			fieldArgs, err := parsePairs(argPairs)
			if err != nil {
				return fmt.Errorf("--arg: %w", err)
			}
			var source any
			if len(sourcePairs) > 0 {
				m, err := parsePairs(sourcePairs)
				if err != nil {
					return fmt.Errorf("--source: %w", err)
				}
				source = m
			}

			s := a.settings
			transport := httptp.New(
				httptp.WithTimeout(s.Transport.Timeout),
				httptp.WithMaxConnsPerHost(s.Transport.MaxConnsPerHost),
				httptp.WithUserAgent(s.Transport.UserAgent),
			)
			defer transport.Close()

			opts := []httprt.Option{httprt.WithConcurrency(s.Runtime.Concurrency)}
			if s.Runtime.ValidateResponses {
				opts = append(opts, httprt.WithResponseValidation())
			}
			if s.Runtime.Dedupe {
				opts = append(opts, httprt.WithDedupe())
			}
			rt := httprt.NewRuntime(bp, transport, opts...)

			ctx, _ := reqid.NewContext(cmd.Context())
			var value any
			if rt.IsAsync(typeName, fieldName) {
				res := rt.BatchResolveAsync(ctx, []httprt.Task{{
					ObjectType: typeName,
					Field:      fieldName,
					Source:     source,
					Args:       fieldArgs,
				}})[0]
				value, err = res.Value, res.Error
			} else {
				value, err = rt.ResolveSync(ctx, typeName, fieldName, source, fieldArgs)
			}
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringArrayVar(&argPairs, "arg", nil, "field argument as name=value; repeatable")
	cmd.Flags().StringArrayVar(&sourcePairs, "source", nil, "parent value field as name=value; repeatable")
	return cmd
}

// parsePairs turns name=value pairs into a map, decoding each value as JSON
// when it parses and keeping it as a string otherwise.
func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", p)
		}
		var v any
		if err := json.UnmarshalFromString(raw, &v); err != nil {
			v = raw
		}
		out[name] = v
	}
	return out, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "httpgraph %s (%s)\n", Version, runtime.Version())
		},
	}
}
