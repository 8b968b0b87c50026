package loom

import (
	"github.com/danpasecinic/loom/internal/capability"
)

// FactoryPrefix in front of a name asks for a factory component itself
// instead of its product, as in GetComponent(ctx, "&store").
const FactoryPrefix = capability.FactoryPrefix

type (
	Initializer      = capability.Initializer
	Disposable       = capability.Disposable
	FactoryComponent = capability.FactoryComponent
	NameAware        = capability.NameAware
	FactoryAware     = capability.FactoryAware
	ContextAware     = capability.ContextAware

	Factory            = capability.Factory
	Context            = capability.Context
	DefinitionRegistry = capability.DefinitionRegistry

	Processor              = capability.InitProcessor
	InstantiationProcessor = capability.InstantiationProcessor
	DefinitionProcessor    = capability.DefinitionProcessor
)
