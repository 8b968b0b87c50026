package loom

import (
	"fmt"

	"github.com/danpasecinic/loom/internal/errs"
)

// Module groups definitions, ready-made singletons and processors so they
// can be installed together.
type Module struct {
	name        string
	definitions []namedDefinition
	singletons  []namedSingleton
	aliases     [][2]string
	processors  []Processor
	submodules  []*Module
}

type namedDefinition struct {
	name string
	def  *Definition
}

type namedSingleton struct {
	name string
	obj  any
}

func NewModule(name string) *Module {
	return &Module{
		name: name,
	}
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Define(name string, def *Definition) *Module {
	m.definitions = append(m.definitions, namedDefinition{name: name, def: def})
	return m
}

func (m *Module) Singleton(name string, obj any) *Module {
	m.singletons = append(m.singletons, namedSingleton{name: name, obj: obj})
	return m
}

func (m *Module) Alias(name, alias string) *Module {
	m.aliases = append(m.aliases, [2]string{name, alias})
	return m
}

func (m *Module) Processor(p Processor) *Module {
	m.processors = append(m.processors, p)
	return m
}

func (m *Module) Include(submodule *Module) *Module {
	m.submodules = append(m.submodules, submodule)
	return m
}

func (m *Module) install(c *Container) error {
	for _, sub := range m.submodules {
		if err := sub.install(c); err != nil {
			return err
		}
	}

	for _, d := range m.definitions {
		if d.def == nil {
			return fmt.Errorf("definition %q is nil", d.name)
		}
		c.Register(d.name, d.def)
	}
	for _, s := range m.singletons {
		c.RegisterSingleton(s.name, s.obj)
	}
	for _, a := range m.aliases {
		c.Alias(a[0], a[1])
	}
	for _, p := range m.processors {
		c.AddProcessor(p)
	}

	return nil
}

// Install applies modules in order, submodules first.
func (c *Container) Install(modules ...*Module) error {
	for _, m := range modules {
		if err := m.install(c); err != nil {
			return errModuleInstallFailed(m.name, err)
		}
	}
	return nil
}

func errModuleInstallFailed(moduleName string, cause error) *Error {
	return errs.New(
		ErrCodeValidationFailed,
		"failed to install module "+moduleName,
		cause,
	)
}
