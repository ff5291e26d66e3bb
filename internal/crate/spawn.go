package crate

import "fmt"

// SpawnParams describes how the host should create the in-world entity for
// a crate type.
type SpawnParams struct {
	Crate      Type
	EntityKind string
	NameTag    string
	Scale      float64
}

// SpawnParamsFor maps a crate type to the parameters of its entity.
// Every crate type shares the same spawn logic; only the parameters differ.
func SpawnParamsFor(t Type) (SpawnParams, error) {
	if !t.Valid() {
		return SpawnParams{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	params := SpawnParams{
		Crate:      t,
		EntityKind: string(t) + "_box",
		NameTag:    t.DisplayName() + " Crate",
		Scale:      1.0,
	}
	if t == Pegasus {
		params.Scale = 1.25
	}
	return params, nil
}
