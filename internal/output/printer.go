// Package output renders workflow pages and audit trails for the terminal.
//
// Styling uses lipgloss with a renderer bound to the destination writer, so
// colors are dropped automatically when output is not a terminal.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"guardflow/internal/audit"
	"guardflow/internal/demo"
	"guardflow/internal/snapshot"
	"guardflow/internal/step"
	"guardflow/internal/workflow"
)

// Printer writes styled output to a writer.
type Printer struct {
	out io.Writer

	title   lipgloss.Style
	muted   lipgloss.Style
	active  lipgloss.Style
	pending lipgloss.Style
	current lipgloss.Style
	warn    lipgloss.Style
	box     lipgloss.Style
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:     w,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		active:  r.NewStyle().Foreground(lipgloss.Color("10")),
		pending: r.NewStyle().Foreground(lipgloss.Color("8")),
		current: r.NewStyle().Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		box:     r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Workflows prints the catalog.
func (p *Printer) Workflows(list []demo.Info) {
	for _, info := range list {
		p.printf("%-12s %s %s\n", info.Name, info.Title, p.muted.Render(fmt.Sprintf("(%d steps)", info.Steps)))
	}
}

// Page prints one step with its progress rail, snapshot, actions and recent audit entries.
func (p *Printer) Page(page workflow.Page) {
	if page.Redirected && page.Requested != "" {
		p.printf("%s\n", p.warn.Render(fmt.Sprintf("Unknown step %q, showing %q", page.Requested, page.Step.ID)))
	}

	header := p.title.Render(page.Title) + "  " + p.muted.Render(fmt.Sprintf("step %d of %d", page.Position, page.Total))
	body := []string{header, p.current.Render(page.Step.Title)}
	if page.Step.Subtitle != "" {
		body = append(body, p.muted.Render(page.Step.Subtitle))
	}
	p.printf("%s\n", p.box.Render(strings.Join(body, "\n")))

	p.printf("%s\n", p.rail(page.Steps, page.Step.ID))
	if line := p.badges(page.Badges); line != "" {
		p.printf("%s\n", line)
	}

	for _, n := range page.Notes {
		p.printf("%s %s\n", p.muted.Render(n.Label+":"), n.Value)
	}

	if len(page.Actions) > 0 {
		p.printf("\nActions:\n")
		for _, a := range page.Actions {
			p.printf("  %-24s %s\n", a.ID, p.muted.Render(a.Label))
		}
	}

	next := p.active.Render("next: available")
	if !page.CanAdvance {
		next = p.pending.Render("next: blocked")
	}
	p.printf("\n%s\n", next)

	if len(page.Audit) > 0 {
		p.printf("\nRecent activity:\n")
		p.entries(page.Audit)
	}
}

func (p *Printer) rail(steps []step.Step, current string) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		if s.ID == current {
			parts[i] = p.current.Render("[" + s.ID + "]")
		} else {
			parts[i] = p.muted.Render(s.ID)
		}
	}
	return strings.Join(parts, p.muted.Render(" > "))
}

func (p *Printer) badges(badges []snapshot.Badge) string {
	if len(badges) == 0 {
		return ""
	}
	parts := make([]string, 0, len(badges)+1)
	parts = append(parts, p.muted.Render(fmt.Sprintf("%d/%d", snapshot.Count(badges), len(badges))))
	for _, b := range badges {
		if b.Active {
			parts = append(parts, p.active.Render("✓ "+b.Label))
		} else {
			parts = append(parts, p.pending.Render("○ "+b.Label))
		}
	}
	return strings.Join(parts, "  ")
}

// Outcome prints the result of an action.
func (p *Printer) Outcome(out workflow.Outcome) {
	p.printf("%s %s\n", p.active.Render("✓"), out.Entry.Message)
	if out.Navigate {
		p.printf("%s\n", p.muted.Render("→ "+out.Next.ID))
	}
}

// Blocked prints a guard refusal for the step.
func (p *Printer) Blocked(s step.Step) {
	p.printf("%s\n", p.warn.Render(fmt.Sprintf("Cannot continue from %q: prerequisites not met", s.ID)))
}

// Audit prints the full audit log.
func (p *Printer) Audit(entries []audit.Entry) {
	if len(entries) == 0 {
		p.printf("%s\n", p.muted.Render("No activity yet"))
		return
	}
	p.entries(entries)
}

func (p *Printer) entries(entries []audit.Entry) {
	for _, e := range entries {
		p.printf("  %s  %s\n", p.muted.Render(e.Time().Local().Format(time.TimeOnly)), e.Message)
	}
}

// Reset prints the reset confirmation.
func (p *Printer) Reset(workflow string) {
	p.printf("%s\n", p.active.Render(fmt.Sprintf("Reset %s: state and activity cleared", workflow)))
}

// Listening prints the server banner.
func (p *Printer) Listening(addr string) {
	p.printf("%s %s\n", p.title.Render("guardflow"), p.muted.Render("listening on "+addr))
}
