package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

// promptConfirmer prints the plan and asks the operator to approve it.
type promptConfirmer struct {
	reporter *Reporter
	in       *bufio.Reader
	out      io.Writer
	force    bool
	show     bool
}

var _ driving.Confirmer = (*promptConfirmer)(nil)

// newConfirmer prints the plan when show is set and, unless force is
// set, loops until the answer is yes, y, no or n.
func newConfirmer(reporter *Reporter, in io.Reader, out io.Writer, force, show bool) *promptConfirmer {
	return &promptConfirmer{
		reporter: reporter,
		in:       bufio.NewReader(in),
		out:      out,
		force:    force,
		show:     show,
	}
}

func (c *promptConfirmer) Confirm(ctx context.Context, plan driving.Plan) (bool, error) {
	if c.show || !c.force {
		c.reporter.Plan(plan)
	}
	if c.force {
		return true, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprint(c.out, "Continue ? [y]es [n]o : ")
		line, err := c.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "yes", "y":
			fmt.Fprintln(c.out)
			return true, nil
		case "no", "n":
			return false, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("read confirmation: %w", err)
		}
	}
}
