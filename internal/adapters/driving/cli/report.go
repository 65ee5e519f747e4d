package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/searchsync/internal/core/domain"
	"github.com/custodia-labs/searchsync/internal/core/ports/driving"
)

// Reporter renders plans, progress and results of a command.
type Reporter struct {
	out       io.Writer
	verbosity int
	styles    *Styles
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, verbosity int, styles *Styles) *Reporter {
	if styles == nil {
		styles = NewStyles(nil, false)
	}
	return &Reporter{out: out, verbosity: verbosity, styles: styles}
}

// Plan prints what a command is about to change.
func (r *Reporter) Plan(plan driving.Plan) {
	var b strings.Builder
	fmt.Fprintf(&b, "The following %s will be %s:", plan.Kind, plan.Action.Past())
	for _, item := range plan.Items {
		if plan.Kind == driving.PlanIndices {
			fmt.Fprintf(&b, "\n\t- %s.", item.Index)
			continue
		}
		fmt.Fprintf(&b, "\n\t- %d %s.", item.Count, item.Model)
	}
	fmt.Fprint(r.out, b.String()+"\n\n")
}

// Progress prints batch progress at verbosity 2 and above.
func (r *Reporter) Progress(p domain.BatchProgress) {
	if r.verbosity < 2 {
		return
	}
	fmt.Fprintf(r.out, "Processing %s: %d/%d\n", p.Model, p.Processed, p.Total)
}

// Results prints the outcome of every target. At verbosity 1 errors are
// grouped by reason; above it the full list is printed.
func (r *Reporter) Results(action domain.Action, results []driving.TargetResult) {
	if r.verbosity == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, tr := range results {
		res := tr.Result
		fmt.Fprintf(&b, "%s %s successfully %s, %s errors:\n",
			r.styles.Success(res.Success), tr.Model, action.Past(), r.styles.Failure(len(res.Errors)))

		if r.verbosity == 1 {
			for _, rc := range res.ReasonCounts() {
				fmt.Fprintf(&b, "    - %s : %d\n", rc.Reason, rc.Count)
			}
			continue
		}
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "    - %s\n", e)
		}
	}
	fmt.Fprint(r.out, b.String()+"\n")
}

// IndexOutcome prints the result of one index action.
func (r *Reporter) IndexOutcome(o driving.IndexOutcome) {
	if r.verbosity == 0 && o.Err == nil {
		return
	}
	step := fmt.Sprintf("%s index '%s'...", presentParticiple(o.Action), o.Index)
	if o.Err != nil {
		fmt.Fprintf(r.out, "%s %s\n    %v\n", step, r.styles.Error(), o.Err)
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", step, r.styles.OK())
}

// Indices prints indices grouped by app with their state.
func (r *Reporter) Indices(statuses []driving.IndexStatus) {
	var apps []string
	byApp := make(map[string][]driving.IndexStatus)
	for _, st := range statuses {
		if _, ok := byApp[st.App]; !ok {
			apps = append(apps, st.App)
		}
		byApp[st.App] = append(byApp[st.App], st)
	}

	for _, app := range apps {
		label := app
		if label == "" {
			label = "(no app)"
		}
		fmt.Fprintln(r.out, r.styles.Label(label))
		for _, st := range byApp[app] {
			if st.Exists {
				fmt.Fprintf(r.out, "[X] %s (%d documents)\n", st.Name, st.Count)
				continue
			}
			fmt.Fprintf(r.out, "[ ] %s\n", st.Name)
		}
	}
}

func presentParticiple(a domain.Action) string {
	switch a {
	case domain.ActionCreate:
		return "Creating"
	case domain.ActionDelete:
		return "Deleting"
	case domain.ActionRebuild:
		return "Rebuilding"
	case domain.ActionUpdate:
		return "Updating"
	default:
		return strings.ToUpper(a.String()[:1]) + a.String()[1:] + "ing"
	}
}
