// Package output renders resolved account statistics for the terminal
// and for export. The core packages know nothing about these formats.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

// Format selects an output renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatCSV, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json, csv, or yaml)", s)
	}
}

// Write renders the results in the requested format.
func Write(w io.Writer, format Format, results []*stats.AccountStats) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatYAML:
		return WriteYAML(w, results)
	case FormatTable:
		for _, st := range results {
			if err := WriteTable(w, st, TableOptions{}); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON emits indented JSON. A single account is emitted as an
// object, several as an array.
func WriteJSON(w io.Writer, results []*stats.AccountStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

// WriteYAML emits a YAML document per account.
func WriteYAML(w io.Writer, results []*stats.AccountStats) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	for _, st := range results {
		if err := enc.Encode(st); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV emits two record sections per account: one profile row, then
// one row per repository.
func WriteCSV(w io.Writer, results []*stats.AccountStats) error {
	cw := csv.NewWriter(w)

	for i, st := range results {
		if i > 0 {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}

		if err := cw.Write([]string{"Type", "Login", "Name", "Bio", "Location", "Followers", "Following", "Public Repos", "Public Gists", "Created At"}); err != nil {
			return err
		}
		p := st.Profile
		if err := cw.Write([]string{
			"Account", p.Login, p.Name, p.Bio, p.Location,
			strconv.Itoa(p.Followers), strconv.Itoa(p.Following),
			strconv.Itoa(p.PublicRepos), strconv.Itoa(p.PublicGists),
			p.CreatedAt.Format("2006-01-02"),
		}); err != nil {
			return err
		}

		if len(st.Repositories) == 0 {
			continue
		}
		if err := cw.Write([]string{""}); err != nil {
			return err
		}
		if err := cw.Write([]string{"Type", "Name", "Stars", "Language", "Forks", "Open Issues", "Last Updated"}); err != nil {
			return err
		}
		for _, repo := range st.Repositories {
			if err := cw.Write([]string{
				"Repo", repo.Name, strconv.FormatUint(uint64(repo.Stars), 10),
				repo.Language, strconv.Itoa(repo.Forks), strconv.Itoa(repo.OpenIssues),
				repo.UpdatedAt.Format("2006-01-02"),
			}); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
