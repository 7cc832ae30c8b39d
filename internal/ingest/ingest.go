// Package ingest fetches the raw dataset into the raw data directory.
package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrNoCSV = errors.New("no CSV file found after download")
	// ErrNotCSV is returned when a download is neither a zip archive nor CSV.
	ErrNotCSV = errors.New("download is neither a zip archive nor CSV")
)

// Downloader writes the archive of a dataset to w.
type Downloader interface {
	Download(ctx context.Context, dataset string, w io.Writer) error
}

type Ingester struct {
	Client    Downloader
	DatasetID string
	RawDir    string
	RawFile   string
	Logger    zerolog.Logger
}

// Ingest downloads and unpacks the dataset unless RawFile already exists.
func (in *Ingester) Ingest(ctx context.Context) error {
	if _, err := os.Stat(in.RawFile); err == nil {
		in.Logger.Info().Str("path", in.RawFile).Msg("raw data file already exists, skipping download")
		return nil
	}

	if err := os.MkdirAll(in.RawDir, 0755); err != nil {
		return fmt.Errorf("creating raw dir: %w", err)
	}

	tmp, err := os.CreateTemp(in.RawDir, "download-*.part")
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	in.Logger.Info().Str("dataset", in.DatasetID).Msg("downloading dataset")
	if err := in.Client.Download(ctx, in.DatasetID, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("downloading %s: %w", in.DatasetID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing download file: %w", err)
	}

	extracted, err := Extract(tmp.Name(), in.RawDir)
	if errors.Is(err, zip.ErrFormat) {
		// Single-file datasets may be served without an archive.
		if err := checkCSVHeader(tmp.Name()); err != nil {
			return err
		}
		single := filepath.Join(in.RawDir, path.Base(in.DatasetID)+".csv")
		if err := os.Rename(tmp.Name(), single); err != nil {
			return fmt.Errorf("saving download: %w", err)
		}
		extracted = []string{single}
	} else if err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}
	in.Logger.Info().Int("files", len(extracted)).Msg("download and extraction complete")

	return StandardizeFilename(in.RawDir, in.RawFile, in.Logger)
}

// checkCSVHeader rejects bodies whose first line is not a delimited header,
// such as HTML or JSON error pages served with a 200.
func checkCSVHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading download: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4096)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading download: %w", err)
	}
	line, _, _ := strings.Cut(string(head[:n]), "\n")
	line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
	if line == "" || strings.ContainsAny(line[:1], "<{[") ||
		!strings.Contains(line, ",") || strings.ContainsRune(line, 0) {
		return fmt.Errorf("%w: starts with %.40q", ErrNotCSV, line)
	}
	return nil
}

// Extract unpacks the zip at archivePath into dir and returns the written
// paths. Entries that would land outside dir are rejected.
func Extract(archivePath, dir string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	root := dir + string(os.PathSeparator)
	var written []string
	for _, f := range r.File {
		target := filepath.Join(dir, f.Name)
		if !strings.HasPrefix(target, root) {
			return written, fmt.Errorf("archive entry %q escapes %s", f.Name, dir)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return written, err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return written, fmt.Errorf("extracting %s: %w", f.Name, err)
		}
		written = append(written, target)
	}
	return written, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// StandardizeFilename renames the first CSV in rawDir to rawFile.
func StandardizeFilename(rawDir, rawFile string, logger zerolog.Logger) error {
	matches, err := filepath.Glob(filepath.Join(rawDir, "*.csv"))
	if err != nil {
		return fmt.Errorf("listing csv files: %w", err)
	}
	if len(matches) == 0 {
		return ErrNoCSV
	}
	sort.Strings(matches)

	actual := matches[0]
	if filepath.Clean(actual) == filepath.Clean(rawFile) {
		return nil
	}
	logger.Info().Str("from", filepath.Base(actual)).Str("to", filepath.Base(rawFile)).Msg("standardizing filename")
	if err := os.Rename(actual, rawFile); err != nil {
		return fmt.Errorf("renaming %s: %w", actual, err)
	}
	return nil
}
