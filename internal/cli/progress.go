package cli

import (
	"fmt"
	"io"

	"github.com/raysh454/sitebots/internal/model"
)

// progressPrinter writes one line per bot status change. Progress ticks
// within a status are not printed.
type progressPrinter struct {
	out  io.Writer
	last []model.BotStatus
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

// Sink matches tracker.Sink.
func (p *progressPrinter) Sink(states []model.BotState) {
	if p.last == nil {
		p.last = make([]model.BotStatus, len(states))
		for i := range p.last {
			p.last[i] = model.BotIdle
		}
	}
	for i, s := range states {
		if i >= len(p.last) || s.Status == p.last[i] {
			continue
		}
		p.last[i] = s.Status
		switch s.Status {
		case model.BotRunning:
			fmt.Fprintf(p.out, "%s %s: running\n", s.Icon, s.Name)
		case model.BotCompleted:
			fmt.Fprintf(p.out, "%s %s: completed (%d findings)\n", s.Icon, s.Name, s.Findings)
		case model.BotError:
			fmt.Fprintf(p.out, "%s %s: failed\n", s.Icon, s.Name)
		}
	}
}
