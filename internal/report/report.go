// Package report renders pipeline state and reporting tables as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-bfv-analytics/internal/aggregator"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/storage"
	"github.com/pable/go-bfv-analytics/internal/tracker"
)

const missing = "—"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
			// Headers are printed as given so "TOP 50%" and SQL column names survive.
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
	}))
}

// PrintStateCounts prints how many matches sit in each ingestion state.
func PrintStateCounts(w io.Writer, counts map[tracker.State]int) {
	table := newTable(w)
	table.Header("STATE", "MATCHES")
	total := 0
	for _, st := range tracker.States {
		table.Append(st.String(), strconv.Itoa(counts[st]))
		total += counts[st]
	}
	table.Append("total", strconv.Itoa(total))
	table.Render()
}

// PrintRuns prints stage runs, newest first as given.
func PrintRuns(w io.Writer, runs []model.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "(no runs recorded)")
		return
	}
	table := newTable(w)
	table.Header("RUN", "STAGE", "PROCESSED", "SKIPPED", "FAILED", "STARTED", "TOOK")
	for _, r := range runs {
		id := r.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append(
			id,
			r.Stage,
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Failed),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
		)
	}
	table.Render()
}

// PrintBenchmarks prints the benchmark row as a metric by threshold grid.
// Cells absent from values, or nil, print as a dash.
func PrintBenchmarks(w io.Writer, values map[string]*float64) {
	table := newTable(w)
	header := []any{"METRIC"}
	for _, th := range aggregator.Thresholds {
		header = append(header, fmt.Sprintf("TOP %d%%", th.TopPercent))
	}
	table.Header(header...)

	for _, m := range aggregator.BenchmarkMetrics {
		row := []any{m.Name}
		for _, th := range aggregator.Thresholds {
			row = append(row, formatValue(values[aggregator.BenchmarkColumn(th, m.Name)]))
		}
		table.Append(row...)
	}
	table.Render()
}

func formatValue(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// PrintPlayers prints player dimension rows.
func PrintPlayers(w io.Writer, players []model.DimPlayer) {
	table := newTable(w)
	table.Header("PLAYER", "SQUAD", "MATCHES", "KILLS", "SCORE", "SCORE/MATCH")
	for _, p := range players {
		perMatch := missing
		if p.MatchesPlayed > 0 {
			perMatch = fmt.Sprintf("%.0f", float64(p.TotalScore)/float64(p.MatchesPlayed))
		}
		table.Append(
			p.PlayerID,
			p.Squad,
			strconv.Itoa(p.MatchesPlayed),
			strconv.Itoa(p.TotalKills),
			strconv.Itoa(p.TotalScore),
			perMatch,
		)
	}
	table.Render()
}

// PrintStrata prints the fact table's map-mode strata.
func PrintStrata(w io.Writer, strata []storage.StratumSize) {
	table := newTable(w)
	table.Header("MAP_MODE", "ROWS", "FINISHED", "AVG SPM")
	for _, s := range strata {
		table.Append(
			s.MapMode,
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Finished),
			fmt.Sprintf("%.1f", s.AvgSPM),
		)
	}
	table.Render()
}

// PrintRows prints a raw query result followed by its row count.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

func tier(value float64, metric string, bench map[string]*float64) string {
	if t := aggregator.Tier(value, metric, bench); t != "" {
		return t
	}
	return missing
}

// PrintProfiles prints per-player rollups with the benchmark tier each
// average reaches. bench may be nil when no reload has run yet.
func PrintProfiles(w io.Writer, profiles []aggregator.PlayerProfile, bench map[string]*float64) {
	table := newTable(w)
	table.Header("PLAYER", "MATCHES", "FIN", "WIN%", "K", "D", "SCORE",
		"SPM", "SPM TIER", "KPM", "K/D", "TRUE K/D", "AER", "AER TIER")
	for _, p := range profiles {
		table.Append(
			p.PlayerID,
			strconv.Itoa(p.Matches),
			strconv.Itoa(p.Finished),
			fmt.Sprintf("%.0f%%", p.WinRate()*100),
			strconv.Itoa(p.Kills),
			strconv.Itoa(p.Deaths),
			strconv.Itoa(p.Score),
			fmt.Sprintf("%.1f", p.AvgSPM),
			tier(p.AvgSPM, "score_per_min", bench),
			fmt.Sprintf("%.2f", p.AvgKPM),
			fmt.Sprintf("%.2f", p.AvgKD),
			fmt.Sprintf("%.2f", p.AvgTrueKD),
			fmt.Sprintf("%.2f", p.AvgAER),
			tier(p.AvgAER, "AER", bench),
		)
	}
	table.Render()
}

// PrintTrend prints one player's facts oldest first, each against the
// benchmark tiers.
func PrintTrend(w io.Writer, facts []model.MatchPlayer, bench map[string]*float64) {
	sorted := append([]model.MatchPlayer(nil), facts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MatchStartTime.Before(sorted[j].MatchStartTime)
	})

	table := newTable(w)
	table.Header("DATE", "MATCH", "MAP", "MODE", "RESULT", "RANK",
		"K", "D", "K/D", "SPM", "SPM TIER", "AER", "AER TIER")
	for _, f := range sorted {
		_, _, aer, _, _ := aggregator.Ratings(f)
		table.Append(
			f.MatchStartTime.Local().Format("2006-01-02 15:04"),
			f.MatchID,
			f.Map,
			f.Mode,
			string(f.TeamStatus),
			strconv.Itoa(f.OverallRank),
			strconv.Itoa(f.Kills),
			strconv.Itoa(f.Deaths),
			fmt.Sprintf("%.2f", f.KillsPerDeath),
			fmt.Sprintf("%.1f", f.ScorePerMin),
			tier(f.ScorePerMin, "score_per_min", bench),
			fmt.Sprintf("%.2f", aer),
			tier(aer, "AER", bench),
		)
	}
	table.Render()
}

// PrintMatchSummary prints the one-line header for a processed match.
func PrintMatchSummary(w io.Writer, m model.ProcessedMatch, url string) {
	fmt.Fprintf(w, "\nMap: %s  |  Mode: %s  |  Date: %s  |  %s vs %s  |  Winner: %s  |  %.0f min\n",
		m.Map, m.Mode, m.StartTime.Local().Format("2006-01-02 15:04"),
		m.Team1, m.Team2, m.Winner, m.DurationMin)
	if url != "" {
		fmt.Fprintf(w, "%s\n", url)
	}
	fmt.Fprintln(w)
}

// PrintMatchPlayers prints a match's facts by overall rank. If focus is
// non-empty, that player's row is marked with ">".
func PrintMatchPlayers(w io.Writer, facts []model.MatchPlayer, focus string) {
	sorted := append([]model.MatchPlayer(nil), facts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OverallRank < sorted[j].OverallRank })

	table := newTable(w)
	table.Header(" ", "RANK", "TEAM RANK", "PLAYER", "TEAM", "RESULT",
		"K", "D", "K/D", "TRUE K/D", "SCORE", "SPM", "REVIVES")
	for _, f := range sorted {
		marker := " "
		if focus != "" && f.PlayerID == focus {
			marker = ">"
		}
		table.Append(
			marker,
			strconv.Itoa(f.OverallRank),
			strconv.Itoa(f.TeamRank),
			f.PlayerID,
			f.Team,
			string(f.TeamStatus),
			strconv.Itoa(f.Kills),
			strconv.Itoa(f.Deaths),
			fmt.Sprintf("%.2f", f.KillsPerDeath),
			fmt.Sprintf("%.2f", f.TrueKillsPerDeath),
			strconv.Itoa(f.Score),
			fmt.Sprintf("%.1f", f.ScorePerMin),
			strconv.Itoa(f.Revives),
		)
	}
	table.Render()
}
