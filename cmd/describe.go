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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/config"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/genai"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/profile"
	"github.com/GoogleCloudPlatform/tabular-data-toolkit/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:     "describe [input]",
	Short:   "Profile the columns of a tabular file",
	Long:    `Reads a tabular file and computes per-column statistics: null counts, distinct counts, example values and numeric ranges. With a Gemini API key, example values that look like PII are replaced with synthetic ones, and context files enable generated column and dataset descriptions.`,
	Example: "./tabular_toolkit describe orders.csv --sections \"null_count,examples\"\n./tabular_toolkit describe orders.csv --context ./notes.txt --gemini-api-key $GEMINI_API_KEY",
	Args:    cobra.ExactArgs(1),
	RunE:    runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	ctx := cmd.Context()
	input := args[0]
	datasetName := utils.DatasetName(input)

	outputFormat := cmd.Flag("format").Value.String()
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unsupported profile format: %s (want text or json)", outputFormat)
	}

	zap.L().Info("starting describe operation",
		zap.String("input", input), zap.String("dataset", datasetName))

	f, casts, err := ingestFrame(ctx, input, cfg)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}
	logCastErrors(input, casts)

	sectionsFlag := cmd.Flag("sections").Value.String()
	sectionSet := make(map[string]bool)
	if sectionsFlag != "" {
		sectionsFlag = strings.ReplaceAll(sectionsFlag, " ", "")
		for _, s := range strings.Split(sectionsFlag, ",") {
			sectionSet[strings.TrimSpace(strings.ToLower(s))] = true
		}
	}

	contextFilesFlag := cmd.Flag("context").Value.String()
	knowledgeContext, err := utils.ReadContextFiles(contextFilesFlag)
	if err != nil {
		return fmt.Errorf("failed to read context files: %w", err)
	}

	if knowledgeContext != "" && cfg.GeminiAPIKey == "" {
		return fmt.Errorf("context files are provided, but Gemini API key is not configured. Please set the GEMINI_API_KEY environment variable")
	}

	// The LLM is optional. Without it the profile is purely statistical:
	// no PII screening and no generated descriptions.
	var llm genai.LLMClient
	if cfg.GeminiAPIKey != "" {
		model := cmd.Flag("model").Value.String()
		client, err := genai.NewClient(ctx, genai.Config{APIKey: cfg.GeminiAPIKey, Model: model})
		if err != nil {
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		if keyErr := client.IsAPIKeyValid(ctx); keyErr != nil {
			client.Close()
			if knowledgeContext != "" {
				return fmt.Errorf("Gemini API key is invalid. Please provide a valid api key")
			}
			zap.L().Warn("Gemini API key provided is invalid. PII identification will be skipped.")
		} else {
			llm = client
			defer client.Close()
		}
	} else {
		zap.L().Info("no Gemini API key provided. PII identification will be skipped.")
	}

	service := profile.NewService(llm, profile.Config{})
	prof, err := service.Profile(ctx, f, profile.Params{
		DatasetName:      datasetName,
		Columns:          utils.ParseColumnsFlag(cmd.Flag("columns").Value.String()),
		Sections:         sectionSet,
		KnowledgeContext: knowledgeContext,
	})
	if err != nil {
		return fmt.Errorf("dataset profiling failed: %w", err)
	}

	var output []byte
	if outputFormat == "json" {
		output, err = json.MarshalIndent(prof, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		output = append(output, '\n')
	} else {
		output = []byte(profile.FormatProfileAsText(prof))
	}

	outputFile := cmd.Flag("out_file").Value.String()
	if outputFile == "-" {
		_, err = cmd.OutOrStdout().Write(output)
		return err
	}
	if outputFile == "" {
		outputFile = utils.GetDefaultOutputFilePath(datasetName, "describe")
		if outputFormat == "json" {
			outputFile = strings.TrimSuffix(outputFile, ".txt") + ".json"
		}
	}
	if err := os.WriteFile(outputFile, output, 0o644); err != nil {
		return fmt.Errorf("failed to write profile to file: %w", err)
	}
	fmt.Printf("Profile written to: %s\n", outputFile)

	zap.L().Info("describe operation completed", zap.String("output", outputFile))
	return nil
}

func init() {
	var outputFile string
	var columns string
	var sections string
	var contextFiles string
	var model string
	var format string

	// Flags for describe command
	describeCmd.Flags().StringVarP(&outputFile, "out_file", "o", "", "File path to save the profile to (defaults to <dataset>_profile.txt, '-' for stdout)")
	describeCmd.Flags().StringVar(&columns, "columns", "", "Comma-separated list of columns to profile (e.g., 'id,amount'). If empty, all columns are profiled.")
	describeCmd.Flags().StringVar(&sections, "sections", "", "Comma-separated list of sections to compute (e.g., 'null_count,distinct_count,examples,min_max,description'). If empty, all sections are computed.")
	describeCmd.Flags().StringVar(&contextFiles, "context", "", "Comma-separated list of context files to provide additional information for description generation.")
	describeCmd.Flags().StringVar(&model, "model", "gemini-1.5-pro-002", "Model to use for description generation.")
	describeCmd.Flags().StringVar(&format, "format", "text", "Profile output format (text or json)")
}
