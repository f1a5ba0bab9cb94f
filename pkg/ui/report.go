package ui

import (
	"fmt"
	"strconv"
	"strings"

	"kcoord/pkg/concurrency/lock"
	"kcoord/pkg/coord"
	"kcoord/pkg/scenario"
	"kcoord/pkg/ui/base"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

const (
	resultWidth = 28
	gaugeWidth  = 10

	// StyleFunc sees the header as row 0 and data rows from 1.
	headerRow     = 0
	dataRowOffset = 1
)

// count renders a counter with thousands separators.
func count[T ~int | ~uint64](n T) string {
	return humanize.Comma(int64(n))
}

func ticks(f float64) string {
	return humanize.FormatFloat("#,###.##", f)
}

// LevelSeverity grades a lock contention level.
func LevelSeverity(l lock.ContentionLevel) base.Severity {
	switch l {
	case lock.ContentionNone, lock.ContentionLow:
		return base.SeverityOK
	case lock.ContentionMedium:
		return base.SeverityNotice
	case lock.ContentionHigh:
		return base.SeverityWarn
	default:
		return base.SeverityCritical
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(bgLight)).
		Headers(headers...)
}

func plainStyle(row, _ int) lipgloss.Style {
	if row == headerRow {
		return headerCellStyle
	}
	return cellStyle
}

// ScenarioReport renders the step-by-step outcome of a scenario run.
func ScenarioReport(r *scenario.Report) string {
	verdict := successStyle.Render(" PASS ")
	if !r.Passed() {
		verdict = errorStyle.Render(" FAIL ")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render(r.Name),
		"  ",
		verdict,
		"  ",
		mutedStyle.Render("run "+r.ID.String()),
	)

	rows := make([][]string, 0, len(r.Steps))
	for _, st := range r.Steps {
		status := ""
		switch {
		case !st.Checked:
			status = "-"
		case st.Passed:
			status = "ok"
		default:
			status = "mismatch"
		}
		rows = append(rows, []string{
			strconv.Itoa(st.Index),
			humanize.Comma(int64(st.At)),
			st.Op,
			base.TruncateString(st.Result, resultWidth),
			base.TruncateString(st.Expect, resultWidth),
			status,
		})
	}

	t := newTable("#", "at", "op", "result", "expect", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerCellStyle
			}
			if col == 5 {
				switch rows[row-dataRowOffset][5] {
				case "ok":
					return severityStyle(base.SeverityOK)
				case "mismatch":
					return severityStyle(base.SeverityCritical)
				}
				return mutedStyle.Padding(0, 1)
			}
			return cellStyle
		})

	footer := mutedStyle.Render(fmt.Sprintf("%s steps, %s failed",
		count(len(r.Steps)), count(r.Failures)))

	return strings.Join([]string{header, t.String(), footer, Snapshot(r.Snapshot)}, "\n")
}

// StressReport renders a stress run summary followed by the final snapshot.
func StressReport(r coord.StressReport) string {
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("stress"),
		"  ",
		badgeStyle.Render(fmt.Sprintf("%d workers", r.Options.Workers)),
		mutedStyle.Render(fmt.Sprintf("%s ops each in %v", count(r.Options.Ops), r.Elapsed)),
	)

	t := newTable("acquired", "contended", "woken", "arbitrations", "committed").
		Row(count(r.Acquired), count(r.Contended), count(r.Woken), count(r.Arbitrations), count(r.Committed)).
		StyleFunc(plainStyle)

	return strings.Join([]string{header, t.String(), Snapshot(r.Snapshot)}, "\n")
}

// Snapshot renders every manager's counters as a set of tables.
func Snapshot(s coord.Snapshot) string {
	sections := []string{
		sectionStyle.Render("futex"),
		futexTable(s).String(),
		sectionStyle.Render("locks"),
		lockTable(s).String(),
		sectionStyle.Render("arbiters"),
		arbiterTable(s).String(),
		sectionStyle.Render("batch"),
		batchTable(s).String(),
	}
	return strings.Join(sections, "\n")
}

func futexTable(s coord.Snapshot) *table.Table {
	f := s.Futex
	t := newTable("waits", "wakes", "requeues", "timeouts", "cancels", "active", "buckets", "collided", "avg wait",
		"waitv", "pi owners", "pi boosts", "pi chain").
		Row(count(f.TotalWaits), count(f.TotalWakes), count(f.TotalRequeues), count(f.TotalTimeouts),
			count(f.TotalCancels), count(f.ActiveWaiters), count(f.BucketsUsed), count(f.CollidedBuckets),
			ticks(f.AvgWaitTicks), count(f.WaitvOps), count(f.PIOwners), count(f.PIBoosts),
			count(f.MaxPIChainDepth)).
		StyleFunc(plainStyle)
	return t
}

func lockTable(s coord.Snapshot) *table.Table {
	rows := make([][]string, 0, len(s.LockList))
	levels := make([]lock.ContentionLevel, 0, len(s.LockList))
	for _, l := range s.LockList {
		owner := "-"
		if l.Held {
			owner = strconv.FormatUint(uint64(l.Owner), 10)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(l.ID), 10),
			l.State.String(),
			l.Strategy.String(),
			string(l.Preset),
			owner,
			count(l.Waiters),
			count(l.AcquireCount),
			count(l.ContentionEvents),
			ticks(l.AvgHoldTicks),
			l.Level.String(),
		})
		levels = append(levels, l.Level)
	}

	return newTable("id", "state", "strategy", "preset", "owner", "waiters", "acq", "cont", "avg hold", "level").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerCellStyle
			}
			if col == 9 {
				return severityStyle(LevelSeverity(levels[row-dataRowOffset]))
			}
			return cellStyle
		})
}

func arbiterTable(s coord.Snapshot) *table.Table {
	rows := make([][]string, 0, len(s.Arbiters))
	fairness := make([]float64, 0, len(s.Arbiters))
	for _, a := range s.Arbiters {
		holder := "-"
		if a.HasHolder {
			holder = strconv.FormatUint(uint64(a.Holder), 10)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(a.Resource), 10),
			a.Policy.String(),
			count(a.Contenders),
			holder,
			count(a.Arbitrations),
			count(a.Preemptions),
			fmt.Sprintf("%s %.3f", base.Gauge(a.Fairness, gaugeWidth), a.Fairness),
		})
		fairness = append(fairness, a.Fairness)
	}

	return newTable("resource", "policy", "contenders", "holder", "arbitrations", "preemptions", "fairness").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerCellStyle
			}
			if col == 6 {
				return severityStyle(base.FairnessSeverity(fairness[row-dataRowOffset]))
			}
			return cellStyle
		})
}

func batchTable(s coord.Snapshot) *table.Table {
	b := s.Batch
	return newTable("created", "succeeded", "timed out", "active", "resolved", "waiting", "avg resolution").
		Row(count(b.Created), count(b.Succeeded), count(b.TimedOut), count(b.Active), count(b.Resolved),
			count(b.Waiting), ticks(b.AvgResolutionTicks)).
		StyleFunc(plainStyle)
}
