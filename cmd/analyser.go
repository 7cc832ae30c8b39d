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
	"bytes"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/ademuri/spotify-insights/internal/analysis"
	"github.com/ademuri/spotify-insights/internal/store"
)

type Analysis struct {
	results [][]string
	summary string
}

type Analyser interface {
	GetResults(db *store.Store) (Analysis, error)

	GetName() string
}

func (a Analysis) String() string {
	out := new(bytes.Buffer)
	table := tablewriter.NewWriter(out)
	table.Header(a.results[0])
	for _, row := range a.results[1:] {
		if err := table.Append(row); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Sprintf("Error rendering table: %v", err)
	}
	if a.summary != "" {
		fmt.Fprintf(out, "%s\n", a.summary)
	}
	return out.String()
}

type kpiAnalyser struct{}

func (kpiAnalyser) GetName() string {
	return "Key metrics"
}

func (kpiAnalyser) GetResults(db *store.Store) (Analysis, error) {
	tracks, err := db.GetTracks()
	if err != nil {
		return Analysis{}, err
	}
	k := analysis.ComputeKPIs(tracks)
	return Analysis{
		results: [][]string{
			{"Metric", "Value"},
			{"Total tracks", strconv.Itoa(k.TotalTracks)},
			{"Total artists", strconv.Itoa(k.TotalArtists)},
			{"Average streams", k.AverageStreams},
			{"Most popular artist", k.MostPopularArtist},
		},
	}, nil
}

type topTracksAnalyser struct {
	numToReturn int
}

func (a topTracksAnalyser) GetName() string {
	return fmt.Sprintf("Top %d tracks", a.numToReturn)
}

func (a topTracksAnalyser) GetResults(db *store.Store) (Analysis, error) {
	tracks, err := db.GetTracks()
	if err != nil {
		return Analysis{}, err
	}
	results := [][]string{{"#", "Track", "Artist", "Streams"}}
	for i, row := range analysis.TopTracks(tracks, a.numToReturn) {
		results = append(results, []string{strconv.Itoa(i + 1), row.Track, row.Artist, row.Streams})
	}
	return Analysis{results: results}, nil
}

type topArtistsAnalyser struct {
	numToReturn int
}

func (a topArtistsAnalyser) GetName() string {
	return fmt.Sprintf("Top %d artists", a.numToReturn)
}

func (a topArtistsAnalyser) GetResults(db *store.Store) (Analysis, error) {
	artists, err := db.GetTopArtistsWithCount(a.numToReturn)
	if err != nil {
		return Analysis{}, err
	}
	results := [][]string{{"#", "Artist", "Streams", "Tracks"}}
	for i, artist := range artists {
		results = append(results, []string{
			strconv.Itoa(i + 1),
			artist.Artist,
			analysis.FormatCount(artist.Streams),
			strconv.FormatInt(artist.Tracks, 10),
		})
	}
	return Analysis{results: results}, nil
}

type trainingRunsAnalyser struct {
	numToReturn int
}

func (trainingRunsAnalyser) GetName() string {
	return "Training runs"
}

func (a trainingRunsAnalyser) GetResults(db *store.Store) (Analysis, error) {
	runs, err := db.GetTrainingRuns(a.numToReturn)
	if err != nil {
		return Analysis{}, err
	}
	results := [][]string{{"ID", "Trained at", "Train rows", "Test rows", "R²", "MAE", "Model"}}
	for _, run := range runs {
		results = append(results, []string{
			strconv.FormatInt(run.ID, 10),
			run.TrainedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(run.TrainRows),
			strconv.Itoa(run.TestRows),
			fmt.Sprintf("%.4f", run.R2),
			fmt.Sprintf("%.4f", run.MAE),
			run.ModelPath,
		})
	}
	summary := ""
	if len(runs) == 0 {
		summary = "No training runs recorded yet."
	}
	return Analysis{results: results, summary: summary}, nil
}
