package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

func sampleStats() *stats.AccountStats {
	return &stats.AccountStats{
		Account: stats.AccountID{Login: "octocat", Kind: stats.KindUser},
		Profile: stats.Profile{
			Login:       "octocat",
			Name:        "The Octocat",
			Location:    "San Francisco",
			Followers:   9001,
			Following:   9,
			PublicRepos: 8,
			PublicGists: 4,
			CreatedAt:   time.Date(2011, 1, 25, 18, 44, 36, 0, time.UTC),
		},
		Repositories: []stats.Repository{
			{Name: "flagship", Stars: 90, Language: "Go", Forks: 12, OpenIssues: 3, UpdatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
			{Name: "minor", Stars: 2, Forks: 0, OpenIssues: 1, UpdatedAt: time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC)},
		},
		Contributors: []stats.Contributor{
			{Login: "alice", Contributions: 120},
		},
		FetchedAt: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"table", "json", "csv", "yaml"} {
		if _, err := ParseFormat(valid); err != nil {
			t.Errorf("ParseFormat(%q) error: %v", valid, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestWriteJSON_SingleAccountIsObject(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []*stats.AccountStats{sampleStats()}); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	var decoded stats.AccountStats
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("single account should decode as an object: %v", err)
	}
	if decoded.Profile.Login != "octocat" {
		t.Errorf("decoded login = %q", decoded.Profile.Login)
	}
	if len(decoded.Repositories) != 2 {
		t.Errorf("decoded %d repositories, want 2", len(decoded.Repositories))
	}
}

func TestWriteJSON_MultipleAccountsIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []*stats.AccountStats{sampleStats(), sampleStats()}); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	var decoded []stats.AccountStats
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("multiple accounts should decode as an array: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("decoded %d accounts, want 2", len(decoded))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []*stats.AccountStats{sampleStats()}); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	// Header, profile row, separator, repo header, two repo rows.
	if len(records) != 6 {
		t.Fatalf("got %d records, want 6: %v", len(records), records)
	}
	if records[1][0] != "Account" || records[1][1] != "octocat" || records[1][5] != "9001" {
		t.Errorf("profile row = %v", records[1])
	}
	if records[4][0] != "Repo" || records[4][1] != "flagship" || records[4][2] != "90" {
		t.Errorf("first repo row = %v", records[4])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, []*stats.AccountStats{sampleStats()}); err != nil {
		t.Fatalf("WriteYAML() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"login: octocat", "followers: 9001", "name: flagship", "stars: 90"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleStats(), TableOptions{}); err != nil {
		t.Fatalf("WriteTable() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"octocat", "The Octocat", "9001", "flagship", "alice", "120 contributions"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q", want)
		}
	}
	// No bio set, fields fall back to N/A.
	if !strings.Contains(out, "N/A") {
		t.Error("table output should render N/A for empty fields")
	}
	// Optional columns stay hidden without their flags.
	for _, absent := range []string{"Health", "Size (KB)"} {
		if strings.Contains(out, absent) {
			t.Errorf("table output should not contain %q by default", absent)
		}
	}
}

func TestWriteTable_HealthAndSizeColumns(t *testing.T) {
	st := sampleStats()
	st.Repositories[0].SizeKB = 2048

	// Both repos were last updated well before the reference time, so
	// neither earns the recent-activity bonus.
	opts := TableOptions{
		ShowHealth: true,
		ShowSizes:  true,
		now:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, st, opts); err != nil {
		t.Fatalf("WriteTable() error: %v", err)
	}

	out := buf.String()
	// flagship: 90*2 + 12*3 - 3 = 213; minor: 2*2 + 0 - 1 = 3.
	for _, want := range []string{"Health", "Size (KB)", "213", "2048"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTable_AlignsWideCharacters(t *testing.T) {
	st := sampleStats()
	st.Repositories[0].Name = "日本語リポジトリ"

	var buf bytes.Buffer
	if err := WriteTable(&buf, st, TableOptions{}); err != nil {
		t.Fatalf("WriteTable() error: %v", err)
	}

	// The Stars column starts at the same offset on every repo row.
	var starCols []int
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "日本語リポジトリ"):
			starCols = append(starCols, cellWidth(line[:strings.Index(line, "90")]))
		case strings.Contains(line, "minor"):
			starCols = append(starCols, cellWidth(line[:strings.Index(line, "2 ")]))
		}
	}
	if len(starCols) != 2 || starCols[0] != starCols[1] {
		t.Errorf("repo rows misaligned, star column offsets = %v", starCols)
	}
}

func TestWriteComparison(t *testing.T) {
	second := sampleStats()
	second.Profile.Login = "hubber"
	second.Profile.Name = "Hubber"
	second.Profile.Followers = 17

	var buf bytes.Buffer
	if err := WriteComparison(&buf, []*stats.AccountStats{sampleStats(), second}); err != nil {
		t.Fatalf("WriteComparison() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"octocat", "hubber", "Followers", "9001", "17", "Total Stars", "92"} {
		if !strings.Contains(out, want) {
			t.Errorf("comparison output missing %q:\n%s", want, out)
		}
	}
}

func TestWrite_DispatchesFormats(t *testing.T) {
	for _, format := range []Format{FormatTable, FormatJSON, FormatCSV, FormatYAML} {
		var buf bytes.Buffer
		if err := Write(&buf, format, []*stats.AccountStats{sampleStats()}); err != nil {
			t.Errorf("Write(%s) error: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) produced no output", format)
		}
	}
}
