package library

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"watchlog/models"
)

var exportHeader = []string{
	"Name", "Type", "Platform", "Status", "Rating", "Date Watched",
	"Season", "Episode", "Genres", "Watch Again", "Notes",
}

// ExportFilename returns the download name for an export generated now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("watchlog-export-%s.csv", now.Format("2006-01-02"))
}

// ExportCSV renders the entry log as CSV, one row per entry. Every cell is
// quoted. Genres join with semicolons, and commas inside notes become
// semicolons so naive comma-splitting importers stay aligned.
func (s *Service) ExportCSV(entries []models.WatchEntry) ([]byte, error) {
	var buf bytes.Buffer
	writeRow(&buf, exportHeader)

	for _, entry := range entries {
		watchAgain := "No"
		if entry.WatchAgain {
			watchAgain = "Yes"
		}

		season, episode := "", ""
		if entry.Season != 0 {
			season = strconv.Itoa(entry.Season)
		}
		if entry.Episode != 0 {
			episode = strconv.Itoa(entry.Episode)
		}

		writeRow(&buf, []string{
			entry.Title,
			string(entry.Kind),
			entry.Platform,
			string(entry.Status),
			strconv.Itoa(entry.Rating),
			entry.WatchDate,
			season,
			episode,
			strings.Join(entry.Genres, ";"),
			watchAgain,
			strings.ReplaceAll(entry.Notes, ",", ";"),
		})
	}

	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
