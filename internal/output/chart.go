package output

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/amarzeus/github-stats-cli/pkg/stats"
)

// WriteBarChart renders a PNG bar chart of the account's repositories
// by star count.
func WriteBarChart(w io.Writer, st *stats.AccountStats) error {
	if len(st.Repositories) == 0 {
		return fmt.Errorf("bar chart: %s has no repositories to chart", st.Account)
	}

	bars := make([]chart.Value, 0, len(st.Repositories))
	for _, repo := range st.Repositories {
		bars = append(bars, chart.Value{
			Label: repo.Name,
			Value: float64(repo.Stars),
		})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Top Repositories by Stars for %s", st.Profile.Login),
		Width:    1024,
		Height:   512,
		BarWidth: 48,
		Bars:     bars,
	}
	return graph.Render(chart.PNG, w)
}

// WritePieChart renders a PNG pie chart of the language distribution
// across the account's repositories. Repositories without a detected
// language are grouped under "Others".
func WritePieChart(w io.Writer, st *stats.AccountStats) error {
	if len(st.Repositories) == 0 {
		return fmt.Errorf("pie chart: %s has no repositories to chart", st.Account)
	}

	counts := make(map[string]int)
	for _, repo := range st.Repositories {
		lang := repo.Language
		if lang == "" {
			lang = "Others"
		}
		counts[lang]++
	}

	values := make([]chart.Value, 0, len(counts))
	for lang, n := range counts {
		values = append(values, chart.Value{Label: lang, Value: float64(n)})
	}

	graph := chart.PieChart{
		Title:  fmt.Sprintf("Programming Languages Distribution for %s", st.Profile.Login),
		Width:  768,
		Height: 768,
		Values: values,
	}
	return graph.Render(chart.PNG, w)
}
