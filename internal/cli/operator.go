package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/modelsync/modelsync/internal/orchestrator"
	"github.com/modelsync/modelsync/internal/vcs"
)

// PromptOperator asks the user on a terminal. End of input declines.
type PromptOperator struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPromptOperator(in io.Reader, out io.Writer) *PromptOperator {
	return &PromptOperator{in: bufio.NewScanner(in), out: out}
}

func (o *PromptOperator) ConfirmSave(ctx context.Context) bool {
	switch o.ask(ctx, "The model has unsaved changes. Save it before continuing? [y/N] ") {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (o *PromptOperator) ResolveConflicts(ctx context.Context, conflicts []orchestrator.Conflict) (map[string]vcs.Choice, bool) {
	fmt.Fprintf(o.out, "%d conflicting file(s):\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Fprintf(o.out, "  %s\n", describe(c))
	}

	choices := make(map[string]vcs.Choice, len(conflicts))
	switch o.ask(ctx, "Keep [o]urs or [t]heirs for all, decide [e]ach, or [c]ancel the merge? ") {
	case "o", "ours":
		return fill(choices, conflicts, vcs.ChoiceOurs), true
	case "t", "theirs":
		return fill(choices, conflicts, vcs.ChoiceTheirs), true
	case "e", "each":
	default:
		return nil, false
	}

	for _, c := range conflicts {
		switch o.ask(ctx, describe(c)+": [o]urs, [t]heirs or [c]ancel? ") {
		case "o", "ours":
			choices[c.Path] = vcs.ChoiceOurs
		case "t", "theirs":
			choices[c.Path] = vcs.ChoiceTheirs
		default:
			return nil, false
		}
	}
	return choices, true
}

func (o *PromptOperator) ask(ctx context.Context, question string) string {
	if ctx.Err() != nil {
		return ""
	}

	fmt.Fprint(o.out, question)
	if !o.in.Scan() {
		fmt.Fprintln(o.out)
		return ""
	}
	return strings.ToLower(strings.TrimSpace(o.in.Text()))
}

func describe(c orchestrator.Conflict) string {
	if c.ElementID == "" {
		return c.Path
	}
	return fmt.Sprintf("%s (%s)", c.Path, c.ElementID)
}

func fill(choices map[string]vcs.Choice, conflicts []orchestrator.Conflict, choice vcs.Choice) map[string]vcs.Choice {
	for _, c := range conflicts {
		choices[c.Path] = choice
	}
	return choices
}

var _ orchestrator.Operator = (*PromptOperator)(nil)
