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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/dataset"
	"github.com/ademuri/spotify-insights/internal/logging"
	"github.com/ademuri/spotify-insights/internal/model"
	"github.com/ademuri/spotify-insights/internal/plot"
	"github.com/ademuri/spotify-insights/internal/store"
)

// trainCmd represents the train command
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Trains the track score model",
	Long: `Fits the gradient boosted track score model on the cleaned dataset, reports
R² and MAE on a held-out 20%, saves the model and an actual vs. predicted plot,
and records the run in the catalogue.`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := runTrain(loadConfig(), trainParams()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	defaults := config.DefaultTrainParams()

	var trees int
	trainCmd.Flags().IntVar(&trees, "trees", defaults.NumTrees, "Number of boosting rounds")
	viper.BindPFlag("trees", trainCmd.Flags().Lookup("trees"))

	var seed int64
	trainCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for the train/test split and sampling")
	viper.BindPFlag("seed", trainCmd.Flags().Lookup("seed"))
}

func trainParams() config.TrainParams {
	params := config.DefaultTrainParams()
	if trees := viper.GetInt("trees"); trees > 0 {
		params.NumTrees = trees
	}
	if viper.IsSet("seed") {
		params.Seed = viper.GetInt64("seed")
	}
	return params
}

func runTrain(cfg config.Config, params config.TrainParams) (*model.Report, error) {
	paths := cfg.Paths()
	if err := paths.Ensure(); err != nil {
		return nil, err
	}

	tracks, err := dataset.ReadCleaned(paths.CleanedFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cleaned dataset not found at %s, run the clean step first", paths.CleanedFile())
	}
	if err != nil {
		return nil, err
	}

	fmt.Printf("Training on %d tracks (%d trees)...\n", len(tracks), params.NumTrees)
	start := time.Now()
	report, err := model.Train(tracks, params)
	if err != nil {
		return nil, fmt.Errorf("training model: %w", err)
	}
	fmt.Printf("Split data: %d for training, %d for testing.\n", report.TrainRows, report.TestRows)
	fmt.Printf("R-squared (R²): %.4f\n", report.R2)
	fmt.Printf("Mean Absolute Error (MAE): %.4f\n", report.MAE)
	logging.Info().Dur("took", time.Since(start)).Msg("model trained")

	if err := model.Save(paths.ModelFile(), report.Model); err != nil {
		return nil, err
	}
	fmt.Printf("Saved model to %s\n", paths.ModelFile())

	plotPath := filepath.Join(paths.ReportPlots, plot.ActualVsPredictedFile)
	if err := plot.ActualVsPredicted(plotPath, report.Actual, report.Predicted); err != nil {
		logging.Warn().Err(err).Msg("could not render actual vs predicted plot")
	}

	if err := recordRun(paths, report); err != nil {
		logging.Warn().Err(err).Msg("could not record training run")
	}
	return report, nil
}

func recordRun(paths config.Paths, report *model.Report) error {
	db, err := store.New(paths.CatalogFile())
	if err != nil {
		return fmt.Errorf("opening catalogue: %w", err)
	}
	defer db.Close()

	_, err = db.RecordTrainingRun(store.TrainingRun{
		TrainedAt: time.Now(),
		TrainRows: report.TrainRows,
		TestRows:  report.TestRows,
		R2:        report.R2,
		MAE:       report.MAE,
		ModelPath: paths.ModelFile(),
	})
	return err
}
