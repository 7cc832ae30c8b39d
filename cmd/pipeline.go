/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/logging"
)

var (
	bannerColor  = color.New(color.FgCyan, color.Bold)
	stepColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
)

// pipelineCmd represents the pipeline command
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Runs download, clean and train end to end",
	Long: `Runs the full workflow. A failed download is logged and the pipeline moves
on; it stops when cleaning produces no table.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runPipeline(cmd.Context(), loadConfig(), trainParams()); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}

func banner(c *color.Color, msg string) {
	line := strings.Repeat("=", 41)
	c.Println(line)
	c.Printf("=== %s ===\n", msg)
	c.Println(line)
}

func runPipeline(ctx context.Context, cfg config.Config, params config.TrainParams) error {
	banner(bannerColor, "Starting Spotify Most Streamed Songs 2024 Data Pipeline")

	stepColor.Println("\n[PIPELINE STEP 1/3] Ingesting Raw Data...")
	if err := runDownload(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("an error occurred during download")
	}

	stepColor.Println("\n[PIPELINE STEP 2/3] Processing and Cleaning Data...")
	if _, err := runClean(cfg); err != nil {
		logging.Error().Err(err).Msg("data processing failed")
		fmt.Println()
		banner(failureColor, "PIPELINE FAILED: Data processing error.")
		return err
	}

	stepColor.Println("\n[PIPELINE STEP 3/3] Training Predictive Model...")
	if _, err := runTrain(cfg, params); err != nil {
		logging.Error().Err(err).Msg("model training failed")
		fmt.Println()
		banner(failureColor, "PIPELINE FAILED: Model training error.")
		return err
	}

	fmt.Println()
	banner(successColor, "PIPELINE FINISHED SUCCESSFULLY")
	return nil
}
