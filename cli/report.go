package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/dlgforge/loader"
)

// reportStyles are bound to one writer so colour is only emitted when that
// writer is a terminal.
type reportStyles struct {
	title   lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	ok      lipgloss.Style
	label   lipgloss.Style
	section lipgloss.Style
}

func newReportStyles(w io.Writer) reportStyles {
	r := lipgloss.NewRenderer(w)
	return reportStyles{
		title:   r.NewStyle().Bold(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("196")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("34")),
		label:   r.NewStyle().Foreground(lipgloss.Color("243")).Width(24),
		section: r.NewStyle().Bold(true).Underline(true),
	}
}

// PrintReport writes validation results for one file. It returns true when
// the report has no errors.
func PrintReport(w io.Writer, name string, r loader.Report) bool {
	st := newReportStyles(w)
	fmt.Fprintln(w, st.title.Render(name))
	for _, e := range r.Errors {
		fmt.Fprintln(w, "  "+st.err.Render("error: ")+e)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintln(w, "  "+st.warn.Render("warning: ")+warn)
	}
	switch {
	case !r.Valid():
		fmt.Fprintln(w, st.err.Render(fmt.Sprintf("%d error(s), %d warning(s)", len(r.Errors), len(r.Warnings))))
	case len(r.Warnings) > 0:
		fmt.Fprintln(w, st.ok.Render("valid")+fmt.Sprintf(" with %d warning(s)", len(r.Warnings)))
	default:
		fmt.Fprintln(w, st.ok.Render("valid"))
	}
	return r.Valid()
}

// PrintStats writes a stats table.
func PrintStats(w io.Writer, name string, s loader.Stats) {
	st := newReportStyles(w)
	row := func(label string, v any) {
		fmt.Fprintln(w, "  "+st.label.Render(label)+fmt.Sprint(v))
	}
	fmt.Fprintln(w, st.title.Render(name))
	fmt.Fprintln(w, st.section.Render("Content"))
	row("Characters", s.Characters)
	row("Nodes", s.Nodes)
	row("End nodes", s.EndNodes)
	row("Dialogue lines", s.DialogueLines)
	row("Choices", s.Choices)
	row("Commands", s.Commands)
	row("Initial state commands", s.InitialStateCommands)
	row("Triggers", s.Triggers)
	fmt.Fprintln(w, st.section.Render("Entry groups"))
	row("Groups", s.EntryGroups)
	row("Routes", s.EntryRoutes)
	row("Exit nodes", s.ExitNodes)
	fmt.Fprintln(w, st.section.Render("Diagnostics"))
	row("Errors", s.Errors)
	row("Warnings", s.Warnings)
	if len(s.KnownItems) > 0 {
		row("Items", strings.Join(s.KnownItems, ", "))
	}
	if len(s.KnownCompanions) > 0 {
		row("Companions", strings.Join(s.KnownCompanions, ", "))
	}
}
