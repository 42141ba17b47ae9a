package telegram

import (
	"fmt"
	"strings"

	"github.com/focusplan/bot/internal/domain/entities"
)

const helpText = `Hi! I help you track your daily tasks.

Commands:
/addmain <text> - add a main task (max 3 per day)
/addextra <text> - add an extra task
/mytasks - show today's tasks
/complete_main <number> - complete a main task
/complete_extra <number> - complete an extra task
/delete_main <number> - delete a main task
/delete_extra <number> - delete an extra task
/reset - clear today's tasks
/stats - your completion stats
/admin - per-user stats (admins only)`

// formatDay renders today's task lists with 1-based numbering. The
// numbers shown here are the same positions complete/delete accept.
func formatDay(day *entities.DayRecord) string {
	var b strings.Builder
	b.WriteString("Tasks for today:\n\n")
	b.WriteString("Main:\n")
	b.WriteString(formatList(day.Main))
	b.WriteString("\n\nExtra:\n")
	b.WriteString(formatList(day.Extra))
	return b.String()
}

func formatList(tasks []entities.Task) string {
	if len(tasks) == 0 {
		return "—"
	}
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		mark := "[ ]"
		if t.Done {
			mark = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%d. %s %s", i+1, mark, t.Text))
	}
	return strings.Join(lines, "\n")
}

func formatStats(s entities.Stats) string {
	return fmt.Sprintf("Completed %d of %d tasks.", s.Done, s.Total)
}

func formatGlobalStats(stats map[string]entities.Stats, order []string) string {
	var b strings.Builder
	b.WriteString("Per-user stats:\n")
	for _, userID := range order {
		s := stats[userID]
		fmt.Fprintf(&b, "%s: %d/%d\n", userID, s.Done, s.Total)
	}
	return b.String()
}
