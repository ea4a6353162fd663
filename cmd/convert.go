/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/config"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/delimited"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/frame"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/serialize"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/source"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/structured"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var streamCopy bool

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:     "convert [input...]",
	Short:   "Convert tabular files between formats",
	Long:    `Reads one or more inputs (local paths or http/https URLs), infers their column types, and rewrites them in the requested output format (csv, tsv, json or parquet). Multiple inputs are converted concurrently and written under --download-dir.`,
	Example: "./tabular_toolkit convert orders.csv -f parquet -o orders.parquet\n./tabular_toolkit convert a.csv b.json https://example.com/c.csv -f json --download-dir ./out",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	ctx := cmd.Context()

	outputFile := cmd.Flag("out_file").Value.String()
	if outputFile == "-" {
		outputFile = ""
	}
	if len(args) > 1 {
		if outputFile != "" {
			return fmt.Errorf("--out_file only applies to a single input; use --download-dir for multiple inputs")
		}
		if cfg.Output.DownloadDir == "" {
			return fmt.Errorf("multiple inputs need --download-dir to name their output files")
		}
	}

	if _, err := serialize.GetEncoder(cfg.Output.Format); err != nil {
		return err
	}
	if _, err := structured.ParseLayout(cfg.Output.Layout); err != nil {
		return err
	}

	if streamCopy {
		if len(args) > 1 {
			return fmt.Errorf("--stream copies a single input")
		}
		return runStreamConvert(cmd, args[0], outputFile, cfg)
	}

	var sink serialize.Sink
	if cfg.Output.DownloadDir != "" {
		sink = serialize.DirSink{Dir: cfg.Output.DownloadDir}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, input := range args {
		g.Go(func() error {
			f, casts, err := ingestFrame(gctx, input, cfg)
			if err != nil {
				return fmt.Errorf("reading %s: %w", input, err)
			}
			logCastErrors(input, casts)

			emit := serialize.EmitConfig{
				Options: serialize.Options{
					Format: cfg.Output.Format,
					Layout: cfg.Output.Layout,
				},
				Name: utils.DatasetName(input),
			}
			switch {
			case outputFile != "":
				emit.Path = outputFile
			case sink != nil:
				emit.Download = sink
			}

			data, dest, err := serialize.Emit(gctx, f, emit)
			if err != nil {
				return fmt.Errorf("converting %s: %w", input, err)
			}
			if dest == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			zap.L().Info("converted input",
				zap.String("input", input),
				zap.String("output", dest),
				zap.Int("rows", f.NumRows()),
				zap.Int("columns", f.NumCols()))
			return nil
		})
	}
	return g.Wait()
}

// runStreamConvert copies delimited input to delimited output one chunk at
// a time, so large files never sit in memory as a whole table.
func runStreamConvert(cmd *cobra.Command, input, outputFile string, cfg *config.Config) error {
	if cfg.Output.Format != serialize.FormatCSV && cfg.Output.Format != serialize.FormatTSV {
		return fmt.Errorf("--stream writes delimited output only, got format %q", cfg.Output.Format)
	}
	inFormat := inputFormat
	if inFormat == "" {
		inFormat = serialize.DetectFormat(input)
	}
	if inFormat != serialize.FormatCSV && inFormat != serialize.FormatTSV {
		return fmt.Errorf("--stream reads delimited input only, got format %q", inFormat)
	}

	opts, err := ingestOptions(cfg)
	if err != nil {
		return err
	}
	if inFormat == serialize.FormatTSV && opts.Separator == 0 {
		opts.Separator = '\t'
	}
	outSep := ','
	if cfg.Output.Format == serialize.FormatTSV {
		outSep = '\t'
	}

	var out io.Writer = cmd.OutOrStdout()
	dest := ""
	if outputFile != "" || cfg.Output.DownloadDir != "" {
		enc, err := serialize.GetEncoder(cfg.Output.Format)
		if err != nil {
			return err
		}
		if outputFile != "" {
			dest = serialize.EnsureExtension(outputFile, enc.Extension())
		} else {
			if err := os.MkdirAll(cfg.Output.DownloadDir, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", cfg.Output.DownloadDir, err)
			}
			dest = filepath.Join(cfg.Output.DownloadDir, utils.DatasetName(input)+enc.Extension())
		}
		fh, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("creating %s: %w", dest, err)
		}
		defer fh.Close()
		out = fh
	}

	src := source.Resolve(input, source.RequestOptions{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})

	var rows, blocks int
	var casts []*frame.CastError
	for block, err := range delimited.Stream(cmd.Context(), src, opts) {
		if err != nil {
			return fmt.Errorf("streaming %s: %w", input, err)
		}
		if block.Index == 0 && opts.HasHeader {
			if err := delimited.WriteHeader(out, block.Frame.Names(), outSep); err != nil {
				return err
			}
		}
		if err := delimited.WriteRows(out, block.Frame, outSep); err != nil {
			return err
		}
		rows += block.Frame.NumRows()
		blocks++
		casts = append(casts, block.Casts...)
	}
	logCastErrors(input, casts)

	if dest != "" {
		zap.L().Info("converted input",
			zap.String("input", input),
			zap.String("output", dest),
			zap.Int("rows", rows),
			zap.Int("blocks", blocks))
	}
	return nil
}

func init() {
	var outputFile string

	// Flags for convert command
	convertCmd.Flags().StringVarP(&outputFormat, "format", "f", "csv", fmt.Sprintf("Output format (%s)", "csv, tsv, json, parquet"))
	convertCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "Destination file (single input only; - or empty writes to stdout)")
	convertCmd.Flags().StringVar(&downloadDir, "download-dir", "", "Directory receiving one output file per input, named after the input")
	convertCmd.Flags().BoolVar(&streamCopy, "stream", false, "Copy delimited input in chunks instead of loading it whole (single input, csv/tsv output)")
}
