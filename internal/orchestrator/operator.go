package orchestrator

import (
	"context"
	"fmt"

	"github.com/modelsync/modelsync/internal/vcs"
)

// Strategy decides conflicting merges without a user.
type Strategy string

const (
	StrategyCancel Strategy = "cancel"
	StrategyOurs   Strategy = "ours"
	StrategyTheirs Strategy = "theirs"
)

// ParseStrategy validates s. An empty string is StrategyCancel.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyCancel:
		return StrategyCancel, nil
	case StrategyOurs, StrategyTheirs:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
}

// PolicyOperator answers with fixed policies.
type PolicyOperator struct {
	SaveDirty bool
	Strategy  Strategy
}

func (o PolicyOperator) ConfirmSave(context.Context) bool {
	return o.SaveDirty
}

func (o PolicyOperator) ResolveConflicts(_ context.Context, conflicts []Conflict) (map[string]vcs.Choice, bool) {
	var choice vcs.Choice
	switch o.Strategy {
	case StrategyOurs:
		choice = vcs.ChoiceOurs
	case StrategyTheirs:
		choice = vcs.ChoiceTheirs
	default:
		return nil, false
	}

	choices := make(map[string]vcs.Choice, len(conflicts))
	for _, c := range conflicts {
		choices[c.Path] = choice
	}
	return choices, true
}

// StaticCredentials hands out the same credentials for every remote.
type StaticCredentials vcs.Credentials

func (c StaticCredentials) Credentials(context.Context, string) (vcs.Credentials, error) {
	return vcs.Credentials(c), nil
}
