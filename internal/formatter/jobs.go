// Package formatter reads archive job files and renders command output (tables, styled text, reports)
package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/desertthunder/mtfs/internal/tasks"
)

// Job file columns, in file order.
const (
	ColumnNamePrefix = "Playlist_Name_Prefix"
	ColumnNameSuffix = "Playlist_Name_Suffix"
	ColumnSortOrder  = "Playlist_Sort_Order"
	ColumnPlaylistID = "Playlist_Id"
	ColumnTags       = "Tags"
)

// JobColumns is the header row of a job file.
var JobColumns = []string{ColumnNamePrefix, ColumnNameSuffix, ColumnSortOrder, ColumnPlaylistID, ColumnTags}

const jobDelimiter = ';'

// ParseArchiveInput turns the archive command's argument into jobs.
//
// A value ending in .csv names a job file, which must exist. Anything else is a comma-separated
// list of playlist ids; blanks inside it are ignored.
func ParseArchiveInput(input string) ([]tasks.ArchiveJob, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: no playlist ids or job file given", shared.ErrMissingArgument)
	}

	if strings.EqualFold(filepath.Ext(input), ".csv") {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("%w: provide an existing CSV file or a comma-separated string: %v", shared.ErrInvalidInput, err)
		}
		defer f.Close()
		return ReadArchiveJobs(f)
	}

	var jobs []tasks.ArchiveJob
	for _, id := range strings.Split(input, ",") {
		id = strings.ReplaceAll(id, " ", "")
		if id == "" {
			continue
		}
		jobs = append(jobs, tasks.ArchiveJob{PlaylistID: id})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: no playlist ids in %q", shared.ErrInvalidInput, input)
	}
	return jobs, nil
}

// ReadArchiveJobs parses a semicolon-delimited job file with a header row.
//
// Columns are matched by header name, so their order may vary; only Playlist_Id is required.
// Tags are a comma-separated list.
func ReadArchiveJobs(r io.Reader) ([]tasks.ArchiveJob, error) {
	reader := csv.NewReader(r)
	reader.Comma = jobDelimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: job file is empty", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read job file header: %v", shared.ErrInvalidInput, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := index[ColumnPlaylistID]; !ok {
		return nil, fmt.Errorf("%w: job file has no %s column", shared.ErrInvalidInput, ColumnPlaylistID)
	}

	field := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var jobs []tasks.ArchiveJob
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}
		id := field(row, ColumnPlaylistID)
		if id == "" {
			return nil, fmt.Errorf("%w: line %d: missing %s", shared.ErrInvalidInput, line, ColumnPlaylistID)
		}

		order, err := models.ParseSortOrder(field(row, ColumnSortOrder))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}

		jobs = append(jobs, tasks.ArchiveJob{
			PlaylistID: id,
			Prefix:     field(row, ColumnNamePrefix),
			Suffix:     field(row, ColumnNameSuffix),
			SortOrder:  order,
			Tags:       splitTags(field(row, ColumnTags)),
		})
	}
	return jobs, nil
}

// WriteArchiveJobs writes jobs as a job file that [ReadArchiveJobs] accepts.
func WriteArchiveJobs(w io.Writer, jobs []tasks.ArchiveJob) error {
	writer := csv.NewWriter(w)
	writer.Comma = jobDelimiter

	if err := writer.Write(JobColumns); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, job := range jobs {
		record := []string{job.Prefix, job.Suffix, string(job.SortOrder), job.PlaylistID, strings.Join(job.Tags, ",")}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// JobsFromPlaylists builds a job template for playlists, suffixed with their current names.
func JobsFromPlaylists(playlists []models.Playlist) []tasks.ArchiveJob {
	jobs := make([]tasks.ArchiveJob, 0, len(playlists))
	for _, p := range playlists {
		jobs = append(jobs, tasks.ArchiveJob{PlaylistID: p.ID, Prefix: tasks.DefaultNamePrefix, Suffix: p.Name})
	}
	return jobs
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
