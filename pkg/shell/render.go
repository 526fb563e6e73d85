// pkg/shell/render.go
package shell

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/model"
	"github.com/David-Botos/data-cleaner/pkg/profile"
	"github.com/David-Botos/data-cleaner/pkg/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// maxCellWidth truncates long values in dataset previews
const maxCellWidth = 32

func (s *Shell) renderTable(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	s.println(t.String())
}

func (s *Shell) renderTitle(title string) {
	s.println(titleStyle.Render(title))
}

// renderView prints the active view from the store's accessors
func (s *Shell) renderView() {
	view := s.store.ActiveView()
	current := s.store.Current()

	switch view {
	case model.ViewUpload:
		s.renderTitle("Upload")
		if current == nil {
			s.println("No data loaded. Use: upload <path> (CSV or Excel), or import <source> <schema> <table>")
			return
		}
		s.printf("Dataset loaded: %d rows, %d columns. Use 'upload' to replace it.\n", current.Len(), len(current.Columns))

	case model.ViewClean:
		s.renderTitle("Clean")
		if current == nil {
			s.println(errNoData.Error())
			return
		}
		original := s.store.Original()
		s.printf("Original: %d rows. Current: %d rows, %d columns.\n", original.Len(), current.Len(), len(current.Columns))
		s.renderRows(current, defaultShowRows)
		s.println("Type 'help apply' for cleaning operations.")

	case model.ViewAnalyze:
		s.renderTitle("Analyze")
		if current == nil {
			s.println(errNoData.Error())
			return
		}
		s.renderProfile(s.store.Profile())

	case model.ViewPipeline:
		s.renderTitle("Pipeline")
		s.renderPipeline(s.store.Pipeline())

	case model.ViewExport:
		s.renderTitle("Export")
		if current == nil {
			s.println(errNoData.Error())
			return
		}
		s.printf("Ready to export %d rows, %d columns. Export formats are not available yet.\n",
			current.Len(), len(current.Columns))
	}
}

func (s *Shell) renderRows(snapshot *model.Snapshot, n int) {
	if n > snapshot.Len() {
		n = snapshot.Len()
	}
	rows := make([][]string, 0, n)
	for _, row := range snapshot.Rows[:n] {
		cells := make([]string, len(snapshot.Columns))
		for i, column := range snapshot.Columns {
			cells[i] = formatCell(row[column])
		}
		rows = append(rows, cells)
	}
	s.renderTable(snapshot.Columns, rows)
	if n < snapshot.Len() {
		s.printf("Showing %d of %d rows\n", n, snapshot.Len())
	}
}

func formatCell(v interface{}) string {
	if converter.IsNull(v) {
		return "null"
	}
	text := converter.ToText(v)
	if len(text) > maxCellWidth {
		text = text[:maxCellWidth-3] + "..."
	}
	return text
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func (s *Shell) renderProfile(profiles []model.ColumnProfile) {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		stats := ""
		if p.Stats != nil {
			stats = fmt.Sprintf("mean %s, median %s, std %s, range %s..%s, %d outliers",
				formatFloat(p.Stats.Mean), formatFloat(p.Stats.Median), formatFloat(p.Stats.Std),
				formatFloat(p.Stats.Min), formatFloat(p.Stats.Max), len(p.Stats.Outliers))
		}
		rows = append(rows, []string{
			p.Column,
			p.DataType,
			fmt.Sprintf("%d (%s%%)", p.NullCount, formatFloat(p.NullPercentage)),
			fmt.Sprintf("%d (%s%%)", p.UniqueCount, formatFloat(p.UniquePercentage)),
			fmt.Sprintf("%s%% %s", formatFloat(p.Completeness), profile.QualityLevel(p.Completeness)),
			stats,
		})
	}
	s.renderTable([]string{"Column", "Type", "Nulls", "Unique", "Completeness", "Statistics"}, rows)
}

func (s *Shell) renderPipeline(steps []model.PipelineStep) {
	if len(steps) == 0 {
		s.println("No pipeline steps yet. Use 'apply' on the clean view to add one.")
		return
	}
	rows := make([][]string, len(steps))
	for i, step := range steps {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			shortID(step.ID),
			string(step.Status),
			step.Description(),
			step.Result,
		}
	}
	s.renderTable([]string{"#", "ID", "Status", "Operation", "Result"}, rows)
}

func (s *Shell) renderSessions(sessions []model.ArchiveEntry, current string) {
	if len(sessions) == 0 {
		s.println("No saved sessions")
		return
	}
	rows := make([][]string, len(sessions))
	for i, entry := range sessions {
		marker := ""
		if entry.ID == current {
			marker = "*"
		}
		rows[i] = []string{
			marker,
			entry.ID,
			entry.Name,
			strconv.Itoa(len(entry.Pipeline)),
			entry.CreatedAt.Local().Format(time.DateTime),
		}
	}
	s.renderTable([]string{"", "ID", "Name", "Steps", "Saved"}, rows)
}

func (s *Shell) renderStatus(st store.Status) {
	var b strings.Builder
	if st.Authenticated {
		fmt.Fprintf(&b, "User:      %s\n", st.User)
	} else {
		b.WriteString("User:      signed out\n")
	}
	fmt.Fprintf(&b, "View:      %s\n", st.ActiveView)
	mode := "light"
	if st.DarkMode {
		mode = "dark"
	}
	fmt.Fprintf(&b, "Mode:      %s\n", mode)
	if st.Rows > 0 || st.Columns > 0 {
		fmt.Fprintf(&b, "Dataset:   %d rows, %d columns\n", st.Rows, st.Columns)
	} else {
		b.WriteString("Dataset:   none\n")
	}
	fmt.Fprintf(&b, "Steps:     %d\n", st.Steps)
	fmt.Fprintf(&b, "Sessions:  %d", st.Sessions)
	if st.CurrentSaved != "" {
		fmt.Fprintf(&b, " (current %s)", shortID(st.CurrentSaved))
	}
	s.println(b.String())
}
