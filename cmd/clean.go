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
	"os"

	"github.com/spf13/cobra"

	"github.com/ademuri/spotify-insights/internal/clean"
	"github.com/ademuri/spotify-insights/internal/config"
	"github.com/ademuri/spotify-insights/internal/logging"
	"github.com/ademuri/spotify-insights/internal/store"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Cleans the raw dataset",
	Long: `Repairs the text encoding of the raw CSV, removes garbage, duplicate and
undated rows, coerces numbers and writes data/processed. The sqlite catalogue
is refreshed with the result.`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := runClean(loadConfig()); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cfg config.Config) (*clean.Result, error) {
	paths := cfg.Paths()
	if err := paths.Ensure(); err != nil {
		return nil, err
	}

	result, err := clean.NewPipeline().Run(paths.RawFile(), paths.CleanedFile())
	if err != nil {
		return nil, err
	}

	st := result.Stats
	fmt.Printf("Read %d raw rows (%s)\n", st.RawRows, result.Charset)
	fmt.Printf("Dropped %d garbage, %d missing track/artist, %d bad streams, %d duplicates, %d bad dates\n",
		st.Garbage, st.MissingKey, st.BadStreams, st.Duplicates, st.BadDates)
	if st.Unparsed > 0 {
		fmt.Printf("Zero filled %d unparseable metric values\n", st.Unparsed)
	}
	fmt.Printf("Saved %d tracks to %s\n", st.Kept, result.Path)

	if err := refreshCatalog(paths, result); err != nil {
		// The cleaned CSV is the source of truth; the catalogue can be rebuilt.
		logging.Warn().Err(err).Msg("could not refresh catalogue")
	}
	return result, nil
}

func refreshCatalog(paths config.Paths, result *clean.Result) error {
	db, err := store.New(paths.CatalogFile())
	if err != nil {
		return fmt.Errorf("opening catalogue: %w", err)
	}
	defer db.Close()

	return db.ReplaceTracks(result.Tracks)
}
