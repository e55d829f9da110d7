// package formatter provides functions to export manifests to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/desertthunder/spotsync/internal/manifest"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// Formats lists every supported export format.
var Formats = []Format{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// ParseFormat accepts a format name or a common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q (want csv, markdown, txt or json)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	case FormatJSON:
		return ".json"
	default:
		return ".csv"
	}
}

// Export renders m in format f.
func Export(m *models.Manifest, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(m)
	case FormatMarkdown:
		return ExportToMarkdown(m)
	case FormatText:
		return ExportToText(m)
	case FormatJSON:
		return ExportToJSON(m)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToCSV converts a Manifest to CSV format with columns: Position, ID, Title, Artists, Album
//
// Multiple artists share one column, separated by "; ".
func ExportToCSV(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artists", "Album"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range m.Tracks {
		record := []string{
			fmt.Sprint(i + 1),
			track.ID,
			track.Title,
			strings.Join(track.Artists, "; "),
			track.Album,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Manifest to Markdown format
func ExportToMarkdown(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", m.Title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", m.Len()))

	buf.WriteString("## Tracks\n\n")
	for i, track := range m.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [`%s`]\n", i+1, track.Artist(), track.Title, albumPart, track.ID))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Manifest to plain text format
func ExportToText(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", m.Title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", m.Len()))

	for i, track := range m.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist(), track.Title))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Manifest to indented JSON
func ExportToJSON(m *models.Manifest) ([]byte, error) {
	out := *m
	if out.Tracks == nil {
		out.Tracks = []models.Track{}
	}
	data, err := shared.MarshalJSON(out, true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport renders m in format f and writes it to path.
//
// An empty path defaults to the slugged title with the format's extension in the working directory.
func WriteExport(m *models.Manifest, f Format, path string) (string, error) {
	if path == "" {
		path = manifest.Slug(m.Title) + f.Extension()
	}

	data, err := Export(m, f)
	if err != nil {
		return "", err
	}

	if err := shared.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", f, err)
	}
	return path, nil
}
