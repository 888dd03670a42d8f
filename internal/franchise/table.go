package franchise

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"toondex/internal/catalog"
	"toondex/internal/identity"
)

//go:embed franchises.toml
var defaultTableTOML []byte

// Franchise is one curated group of related titles with the external ids
// known to belong to it.
type Franchise struct {
	Name    string   `toml:"name"`
	Titles  []string `toml:"titles"`
	TMDBIDs []int64  `toml:"tmdb_ids"`
	MALIDs  []int64  `toml:"mal_ids"`
}

// Table is the immutable franchise lookup, loaded once at startup.
type Table struct {
	franchises []Franchise
}

type tableFile struct {
	Franchises []Franchise `toml:"franchise"`
}

// DefaultTable loads the embedded franchise table.
func DefaultTable() (*Table, error) {
	return parseTable(defaultTableTOML)
}

// LoadTable reads a franchise table from path, replacing the embedded table.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read franchise table: %w", err)
	}
	return parseTable(data)
}

func parseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse franchise table: %w", err)
	}
	for i := range file.Franchises {
		f := &file.Franchises[i]
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("franchise entry %d has no name", i)
		}
		if len(f.Titles) == 0 {
			return nil, fmt.Errorf("franchise %q has no titles", f.Name)
		}
		// Franchise names stamp records and show up in CLI output; override
		// files may carry them in any case.
		f.Name = identity.DisplayTitle(f.Name)
	}
	return &Table{franchises: file.Franchises}, nil
}

// Len reports the number of franchises in the table.
func (t *Table) Len() int {
	return len(t.franchises)
}

// Match returns the franchise whose canonical titles match the given title.
// A title matches when it equals a canonical title, starts with one followed
// by a space, or contains one surrounded by spaces. The word-boundary rules
// keep short names like "Up" from matching inside unrelated titles.
func (t *Table) Match(title string) (Franchise, bool) {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return Franchise{}, false
	}
	for _, f := range t.franchises {
		for _, canonical := range f.Titles {
			cl := strings.ToLower(canonical)
			if lower == cl ||
				strings.HasPrefix(lower, cl+" ") ||
				strings.Contains(lower, " "+cl+" ") ||
				strings.HasSuffix(lower, " "+cl) {
				return f, true
			}
		}
	}
	return Franchise{}, false
}

// MatchExternalID returns the franchise carrying the given external id.
func (t *Table) MatchExternalID(source catalog.SourceTag, id int64) (Franchise, bool) {
	for _, f := range t.franchises {
		ids := f.TMDBIDs
		if source == catalog.SourceMAL {
			ids = f.MALIDs
		}
		for _, known := range ids {
			if known == id {
				return f, true
			}
		}
	}
	return Franchise{}, false
}
