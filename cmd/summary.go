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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/spotify-insights/internal/analysis"
	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/store"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Prints KPIs and top tracks and artists",
	Long: `Prints the dashboard metrics from the catalogue written by the clean step,
as tables or as YAML.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSummary(os.Stdout, loadConfig(), viper.GetInt("number"), viper.GetString("format"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating summary: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	var number int
	summaryCmd.Flags().IntVarP(&number, "number", "n", 10, "Number of tracks and artists to show")
	viper.BindPFlag("number", summaryCmd.Flags().Lookup("number"))

	var format string
	summaryCmd.Flags().StringVar(&format, "format", "table", "Output format: table or yaml")
	viper.BindPFlag("format", summaryCmd.Flags().Lookup("format"))
}

func openCatalog(cfg config.Config) (*store.Store, error) {
	paths := cfg.Paths()
	if err := paths.Ensure(); err != nil {
		return nil, err
	}
	db, err := store.New(paths.CatalogFile())
	if err != nil {
		return nil, fmt.Errorf("opening catalogue: %w", err)
	}
	return db, nil
}

func runSummary(out io.Writer, cfg config.Config, n int, format string) error {
	if n < 0 {
		return fmt.Errorf("number of rows must not be negative, got %d", n)
	}

	db, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := db.CountTracks()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("catalogue is empty, run the clean step first")
	}

	switch format {
	case "yaml":
		tracks, err := db.GetTracks()
		if err != nil {
			return err
		}
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(analysis.Summarize(tracks, n)); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return encoder.Close()
	case "table", "":
		analysers := []Analyser{
			kpiAnalyser{},
			topTracksAnalyser{numToReturn: n},
			topArtistsAnalyser{numToReturn: n},
		}
		return printAnalyses(out, db, analysers)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printAnalyses(out io.Writer, db *store.Store, analysers []Analyser) error {
	for _, a := range analysers {
		result, err := a.GetResults(db)
		if err != nil {
			return fmt.Errorf("%s: %w", a.GetName(), err)
		}
		fmt.Fprintf(out, "%s\n%s\n", a.GetName(), result)
	}
	return nil
}
