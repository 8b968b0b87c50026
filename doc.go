// Package loom is a container for named, managed components.
//
// Components are described by definitions and built on demand. The
// container instantiates them, fills their properties, runs their lifecycle
// callbacks and processors, caches singletons and tears them down in
// reverse creation order.
//
// # Quick Start
//
//	c := loom.New()
//
//	c.Register("userStore", loom.DefineType[UserStore]())
//	c.Register("userService", loom.DefineType[UserService](
//	    loom.WithReference("Store", "userStore"),
//	    loom.WithProperty("Region", "eu-west-1"),
//	))
//
//	svc, err := loom.Get[*UserService](ctx, c, "userService")
//
// A definition of a struct type is allocated with new, so UserService above
// is exposed as *UserService.
//
// # Definitions
//
// A definition carries the component type, optional constructors, property
// values, a scope and lifecycle method names:
//
//	loom.Define(reflect.TypeFor[*Pool](),
//	    loom.WithConstructor(NewPool, NewPoolWithSize),
//	    loom.WithProperty("Timeout", "5s"),
//	    loom.WithScope(loom.NonShared),
//	    loom.WithInitMethod("Open"),
//	    loom.WithDestroyMethod("Close"),
//	)
//
// Explicit arguments to GetComponent pick the first constructor with the same
// number of parameters. Literal strings are converted to the property type;
// references must already be assignable.
//
// # Scopes
//
// Singleton components are built once per name. NonShared components are
// built fresh on every request and are never disposed by the container.
//
// # Lifecycle
//
// Building a component runs, in order: instantiation processors,
// instantiation, property population, the NameAware, FactoryAware and
// ContextAware callbacks, BeforeInitialization processors, Initialize and
// the init method, then AfterInitialization processors. Singletons that
// implement Disposable or declare a destroy method are torn down by Destroy,
// last created first.
//
// # Factory Components
//
// A component implementing FactoryComponent is exposed through its product.
// Prefix the name with FactoryPrefix to get the factory itself:
//
//	conn, _ := c.GetComponent(ctx, "conn")   // product
//	f, _ := c.GetComponent(ctx, "&conn")     // the factory
//
// # Processors
//
// Processors see every component the container builds. Refresh registers
// processors found among the definitions, after running definition
// processors that may still change the definitions themselves:
//
//	c.Register("audit", loom.DefineType[AuditProcessor]())
//	err := c.Refresh(ctx)
//
// Package aop builds interception on top of processors.
//
// # Debug Visualization
//
//	c.PrintGraph()          // references, built components marked ●
//	c.FprintGraphDOT(w)     // Graphviz DOT
//	c.FprintTable(w)        // one row per component
//
// # Observability
//
// The container logs through zap and can export Prometheus metrics:
//
//	c := loom.New(
//	    loom.WithLogger(logger),
//	    loom.WithMetrics(loom.NewMetrics("app", prometheus.DefaultRegisterer)),
//	)
package loom
