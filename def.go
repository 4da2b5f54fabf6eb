package gosequence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
)

// ActionDef is a serializable representation of an Action. It references a
// function registered via RegisterAction by ID and carries the fixed
// arguments and deadline for the invocation.
type ActionDef struct {
	// ID is the unique identifier of the action as registered in the
	// action registry.
	ID string `json:"id"`
	// Args are arbitrary key-value pairs handed to the action on every
	// invocation. Values must be JSON-serializable.
	Args map[string]any `json:"args,omitempty"`
	// Timeout bounds the invocation, in nanoseconds. Zero means the
	// sequence default, if any, applies.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// StageDef is a serializable representation of a Stage.
type StageDef struct {
	// Name is the stage's unique name within the sequence.
	Name string `json:"name"`
	// Action is the definition of the stage's unit of work.
	Action ActionDef `json:"action"`
}

// SequenceDef is a serializable representation of a Sequence. It is the
// construction contract for building a sequence out of configuration: an
// ordered, non-empty stage list with unique names, an optional diagnostic
// name, an optional default per-stage timeout, and the update-logging flag.
type SequenceDef struct {
	// Name is a human-readable, diagnostic-only name for the sequence.
	Name string `json:"name,omitempty"`
	// DefaultTimeout, in nanoseconds, is applied to any stage whose action
	// definition carries no timeout of its own.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty"`
	// LogUpdates enables textual logging of every emitted update.
	LogUpdates bool `json:"logUpdates,omitempty"`
	// Stages contains the stage definitions in execution order.
	Stages []StageDef `json:"stages"`
}

// BuildSequence constructs a runnable Sequence from a definition,
// resolving each action ID through the registry. Additional options are
// applied after the definition's own settings.
func BuildSequence(def SequenceDef, opts ...Option) (*Sequence, error) {
	stages := make([]Stage, 0, len(def.Stages))
	for _, sd := range def.Stages {
		fn, err := ActionFromRegistry(sd.Action.ID)
		if err != nil {
			return nil, fmt.Errorf("sequence %q stage %q: %w", def.Name, sd.Name, err)
		}
		stages = append(stages, Stage{
			Name: StageName(sd.Name),
			Action: Action{
				Fn:      fn,
				Args:    sd.Action.Args,
				Timeout: sd.Action.Timeout,
			},
		})
	}

	all := make([]Option, 0, len(opts)+2)
	if def.DefaultTimeout > 0 {
		all = append(all, WithDefaultTimeout(def.DefaultTimeout))
	}
	if def.LogUpdates {
		all = append(all, WithUpdateLogging(true))
	}
	all = append(all, opts...)

	return NewSequence(def.Name, stages, all...)
}

// ParseSequenceDef decodes a JSON-encoded sequence definition.
func ParseSequenceDef(data []byte) (SequenceDef, error) {
	var def SequenceDef
	if err := json.Unmarshal(data, &def); err != nil {
		return SequenceDef{}, fmt.Errorf("failed to parse sequence definition: %w", err)
	}
	return def, nil
}

// DefinitionSchema returns the JSON schema describing SequenceDef, for
// validating and documenting externally supplied definitions.
func DefinitionSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	return reflector.Reflect(&SequenceDef{})
}
