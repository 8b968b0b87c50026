package loom

import "github.com/danpasecinic/loom/internal/definition"

type Scope = definition.Scope

const (
	// Singleton components are built once per name and cached.
	Singleton = definition.Singleton
	// NonShared components are built fresh on every request and never
	// registered for disposal.
	NonShared = definition.NonShared
)
