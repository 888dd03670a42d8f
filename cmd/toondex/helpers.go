package main

import (
	"strconv"
	"strings"

	"toondex/internal/catalog"
)

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return strconv.FormatFloat(*score, 'f', 2, 64)
}

func formatYear(rec *catalog.ContentRecord) string {
	if year, ok := rec.ReleaseYear(); ok {
		return strconv.Itoa(year)
	}
	return "-"
}

func formatGenres(rec *catalog.ContentRecord) string {
	names := rec.GenreNames()
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

// formatSources shows which catalogs contributed to a record.
func formatSources(rec *catalog.ContentRecord) string {
	var parts []string
	for _, tag := range []catalog.SourceTag{catalog.SourceTMDB, catalog.SourceMAL} {
		if presence, ok := rec.DataSources[tag]; ok && presence.HasData {
			parts = append(parts, string(tag))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "+")
}
