package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Ref names an address that flows between steps.
type Ref string

const (
	RefSigner        Ref = "signer"
	RefWrappedNative Ref = "wrapped-native"
	RefFactory       Ref = "factory"
	RefRouter        Ref = "router"
	RefTokenA        Ref = "token-a"
	RefTokenB        Ref = "token-b"
	RefPair          Ref = "pair"
)

// FailurePolicy says what a failing step does to the run.
type FailurePolicy string

const (
	// FailureHalts stops the run with an error.
	FailureHalts FailurePolicy = "halt"
	// FailureDiagnosed logs the replayed revert reason and continues.
	FailureDiagnosed FailurePolicy = "diagnose"
)

type (
	// Step is one node of the bootstrap sequence. It may only read refs
	// listed in Requires and must produce every ref in Produces.
	Step struct {
		Name      string
		Requires  []Ref
		Produces  []Ref
		OnFailure FailurePolicy
		run       func(ctx context.Context, s *runState) error
	}

	// Plan is the ordered step sequence plus the refs available before the
	// first step runs.
	Plan struct {
		Inputs []Ref
		Steps  []Step
	}
)

// Validate checks the plan statically: step names are unique, every
// required ref is an input or produced by a strictly earlier step, and no
// ref is produced twice.
func (p Plan) Validate() error {
	var errs []error

	available := make(map[Ref]string, len(p.Inputs))
	for _, ref := range p.Inputs {
		available[ref] = "input"
	}

	names := make(map[string]struct{}, len(p.Steps))
	for _, step := range p.Steps {
		if _, dup := names[step.Name]; dup {
			errs = append(errs, fmt.Errorf("step %s is declared twice", step.Name))
		}
		names[step.Name] = struct{}{}

		for _, ref := range step.Requires {
			if _, ok := available[ref]; !ok {
				errs = append(errs, fmt.Errorf("step %s requires %s before it is produced", step.Name, ref))
			}
		}

		for _, ref := range step.Produces {
			if producer, ok := available[ref]; ok {
				errs = append(errs, fmt.Errorf("step %s produces %s already produced by %s", step.Name, ref, producer))
				continue
			}
			available[ref] = step.Name
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid bootstrap plan: %w", errors.Join(errs...))
	}

	return nil
}

// String renders the plan one step per line.
func (p Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inputs: %s\n", joinRefs(p.Inputs))
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "%d. %s requires=[%s] produces=[%s] on-failure=%s\n",
			i+1, step.Name, joinRefs(step.Requires), joinRefs(step.Produces), step.OnFailure)
	}
	return b.String()
}

func joinRefs(refs []Ref) string {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = string(ref)
	}
	return strings.Join(parts, ",")
}
