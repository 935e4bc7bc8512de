package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/machine"
)

// printer renders command results as tables or JSON.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

func (p *printer) json(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.w, string(data))
	return err
}

func (p *printer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (p *printer) machines(ms []*machine.Machine) error {
	if p.format == outputJSON {
		return p.json(ms)
	}
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, machineRow(m))
	}
	return p.table([]string{"ID", "NAME", "STATE", "REGION", "IMAGE", "CHECKS", "PROCESS GROUP", "UPDATED"}, rows)
}

func (p *printer) appMachines(am *flaps.FlyAppsMachines) error {
	if p.format == outputJSON {
		return p.json(am)
	}
	if err := p.machines(am.Machines); err != nil {
		return err
	}
	if am.ReleaseCmdMachine != nil {
		_, err := fmt.Fprintf(p.w, "\nrelease command machine: %s (%s)\n",
			am.ReleaseCmdMachine.ID, stateColor(am.ReleaseCmdMachine.State))
		return err
	}
	return nil
}

func (p *printer) lease(l *flaps.MachineLease) error {
	if p.format == outputJSON {
		return p.json(l)
	}
	if l == nil || l.Data == nil {
		_, err := fmt.Fprintln(p.w, "no lease held")
		return err
	}
	return p.table([]string{"NONCE", "OWNER", "EXPIRES"}, [][]string{{
		l.Data.Nonce,
		l.Data.Owner,
		"in " + units.HumanDuration(time.Until(l.Data.Expires())),
	}})
}

func (p *printer) processes(ps []machine.ProcessStat) error {
	if p.format == outputJSON {
		return p.json(ps)
	}
	rows := make([][]string, 0, len(ps))
	for _, s := range ps {
		rows = append(rows, []string{
			fmt.Sprint(s.PID),
			units.BytesSize(float64(s.RSS)),
			fmt.Sprint(s.CPU),
			s.Directory,
			s.Command,
		})
	}
	return p.table([]string{"PID", "RSS", "CPU", "DIR", "COMMAND"}, rows)
}

// message prints v as JSON or a single line of text.
func (p *printer) message(v any, text string) error {
	if p.format == outputJSON {
		return p.json(v)
	}
	_, err := fmt.Fprintln(p.w, text)
	return err
}

func machineRow(m *machine.Machine) []string {
	checks := m.AllHealthChecks()
	checkText := "-"
	if checks.Total > 0 {
		checkText = fmt.Sprintf("%d/%d", checks.Passing, checks.Total)
		if checks.Critical > 0 {
			checkText = color.RedString(checkText)
		}
	}
	updated := "-"
	if !m.UpdatedAt.IsZero() {
		updated = units.HumanDuration(time.Since(m.UpdatedAt)) + " ago"
	}
	return []string{
		m.ID,
		m.Name,
		stateColor(m.State),
		m.Region,
		dash(m.ImageRefWithVersion()),
		checkText,
		dash(m.ProcessGroup()),
		updated,
	}
}

func stateColor(s machine.State) string {
	switch s {
	case machine.StateStarted:
		return color.GreenString(string(s))
	case machine.StateStopped, machine.StateCreated:
		return color.YellowString(string(s))
	case machine.StateDestroyed, machine.StateDestroying:
		return color.RedString(string(s))
	}
	return string(s)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
