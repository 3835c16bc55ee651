package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TableOptions toggles optional repository columns.
type TableOptions struct {
	// ShowHealth appends a health score column to the repository table.
	ShowHealth bool

	// ShowSizes appends a size (KB) column to the repository table.
	ShowSizes bool

	// now is the reference time for health scores, replaceable in tests.
	// Zero means time.Now.
	now time.Time
}

// WriteTable renders one account as a profile block followed by the
// repository and contributor tables.
func WriteTable(w io.Writer, st *stats.AccountStats, opts TableOptions) error {
	p := st.Profile

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("GitHub Stats for %s", st.Account)))

	writeField(w, "Name", orNA(p.Name))
	if st.Account.Kind == stats.KindOrganization {
		writeField(w, "Description", orNA(p.Description))
	} else {
		writeField(w, "Bio", orNA(p.Bio))
	}
	writeField(w, "Location", orNA(p.Location))
	writeField(w, "Followers", strconv.Itoa(p.Followers))
	writeField(w, "Following", strconv.Itoa(p.Following))
	writeField(w, "Public Repos", strconv.Itoa(p.PublicRepos))
	writeField(w, "Public Gists", strconv.Itoa(p.PublicGists))
	writeField(w, "Created", p.CreatedAt.Format("2006-01-02"))

	if len(st.Repositories) > 0 {
		writeRepoTable(w, st.Repositories, opts)
	}
	if len(st.Contributors) > 0 {
		writeContributorTable(w, st)
	}
	return nil
}

// WriteComparison renders several accounts side by side, one stat per row.
func WriteComparison(w io.Writer, results []*stats.AccountStats) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "Nothing to compare.")
		return nil
	}

	labels := []string{"Name", "Followers", "Following", "Public Repos", "Public Gists", "Created", "Total Stars"}
	labelWidth := 0
	for _, l := range labels {
		if n := cellWidth(l); n > labelWidth {
			labelWidth = n
		}
	}

	widths := make([]int, len(results))
	columns := make([][]string, len(results))
	for i, st := range results {
		columns[i] = comparisonColumn(st)
		widths[i] = cellWidth(st.Profile.Login)
		for _, cell := range columns[i] {
			if n := cellWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, headerStyle.Render(padRight("Stat", labelWidth)))
	total := labelWidth
	for i, st := range results {
		fmt.Fprint(w, "  ", headerStyle.Render(padRight(st.Profile.Login, widths[i])))
		total += widths[i] + 2
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("-", total)))

	for row, label := range labels {
		fmt.Fprint(w, labelStyle.Render(padRight(label, labelWidth)))
		for i := range results {
			fmt.Fprint(w, "  ", padRight(columns[i][row], widths[i]))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func comparisonColumn(st *stats.AccountStats) []string {
	var totalStars uint
	for _, repo := range st.Repositories {
		totalStars += repo.Stars
	}
	p := st.Profile
	return []string{
		orNA(p.Name),
		strconv.Itoa(p.Followers),
		strconv.Itoa(p.Following),
		strconv.Itoa(p.PublicRepos),
		strconv.Itoa(p.PublicGists),
		p.CreatedAt.Format("2006-01-02"),
		strconv.FormatUint(uint64(totalStars), 10),
	}
}

func writeRepoTable(w io.Writer, repos []stats.Repository, opts TableOptions) {
	now := opts.now
	if now.IsZero() {
		now = time.Now()
	}

	nameWidth := cellWidth("Repository")
	langWidth := cellWidth("Language")
	for _, repo := range repos {
		if n := cellWidth(repo.Name); n > nameWidth {
			nameWidth = n
		}
		if n := cellWidth(repo.Language); n > langWidth {
			langWidth = n
		}
	}

	header := []string{
		headerStyle.Render(padRight("Repository", nameWidth)),
		headerStyle.Render(padRight("Stars", 7)),
		headerStyle.Render(padRight("Language", langWidth)),
		headerStyle.Render(padRight("Forks", 6)),
		headerStyle.Render(padRight("Issues", 6)),
	}
	ruleWidth := nameWidth + langWidth + 40
	if opts.ShowHealth {
		header = append(header, headerStyle.Render(padRight("Health", 7)))
		ruleWidth += 9
	}
	if opts.ShowSizes {
		header = append(header, headerStyle.Render(padRight("Size (KB)", 9)))
		ruleWidth += 11
	}
	header = append(header, headerStyle.Render("Updated"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Join(header, "  "))
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("-", ruleWidth)))

	for _, repo := range repos {
		row := []string{
			padRight(repo.Name, nameWidth),
			padRight(strconv.FormatUint(uint64(repo.Stars), 10), 7),
			padRight(orNA(repo.Language), langWidth),
			padRight(strconv.Itoa(repo.Forks), 6),
			padRight(strconv.Itoa(repo.OpenIssues), 6),
		}
		if opts.ShowHealth {
			row = append(row, padRight(strconv.Itoa(repo.HealthScore(now)), 7))
		}
		if opts.ShowSizes {
			row = append(row, padRight(strconv.Itoa(repo.SizeKB), 9))
		}
		row = append(row, repo.UpdatedAt.Format("2006-01-02"))
		fmt.Fprintln(w, strings.Join(row, "  "))
	}
}

func writeContributorTable(w io.Writer, st *stats.AccountStats) {
	top, _ := st.TopRepository()

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Top contributors of %s", top.Name)))
	for _, c := range st.Contributors {
		fmt.Fprintf(w, "%s  %s\n",
			labelStyle.Render(padRight(c.Login, 20)),
			fmt.Sprintf("%d contributions", c.Contributions),
		)
	}
}

func writeField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(padRight(label+":", 14)), value)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// cellWidth measures rendered width rather than bytes, so non-ASCII
// names still align.
func cellWidth(s string) int {
	return lipgloss.Width(s)
}

func padRight(s string, width int) string {
	if n := cellWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
