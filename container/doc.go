// Package container is a runtime object-graph construction engine: given a
// declarative registry of service bindings, it builds and caches object
// instances by introspecting constructor signatures and resolving each
// parameter from explicit overrides, custom resolvers, or the registry
// itself, falling back to type-directed lookup.
//
// # Components
//
//   - Registry: the in-memory store of id→target bindings, per-id parameter
//     overrides, per-id callbacks and per-type resolvers, lockable once
//     assembled.
//   - Builder: owns an instance cache and a building-set; constructs
//     instances through the registry, detects cycles, and runs
//     post-construction callbacks exactly once per instance.
//   - Invoker: builds fresh, uncached instances or calls arbitrary
//     functions, optionally consulting a Builder for missing dependencies.
//
// Named types (classes with constructors, interfaces) live in a
// typeref.Universe the registry resolves against; see package typeref.
//
// # Assembling a registry
//
//	u := typeref.NewUniverse()
//	u.RegisterInterface("app.Mailer", typeref.InterfaceOf[Mailer]())
//	u.RegisterClass(&typeref.Class{
//	    Name: "app.SMTPMailer",
//	    New:  NewSMTPMailer, // func(host string, port int) (*SMTPMailer, error)
//	    Params: []typeref.Param{
//	        {Name: "host"},
//	        {Name: "port", Default: 25, HasDefault: true},
//	    },
//	})
//
//	reg := container.NewRegistry(u)
//	reg.Register("mailer", "app.SMTPMailer")
//	reg.SetParameter("mailer", "host", "mail.internal")
//	reg.Lock()
//
// # Building
//
//	b := container.NewBuilder(reg)
//	m, err := b.Get("mailer")       // built once, cached for b's lifetime
//	fresh := b.Clone()              // same registry, empty cache
//
// Targets may also be pre-built instances or lazy factories:
//
//	reg.Register("db", container.Factory(func(r *container.Registry, p container.Params) (any, error) {
//	    return openHandle(p["dsn"].(string))
//	}))
//
// # Ad-hoc invocation
//
//	inv := container.NewInvoker(b)
//	out, err := inv.Invoke(handler, req)   // missing params filled from b
//	obj, err := inv.Make("app.SMTPMailer") // fresh instance, cache bypassed
//
// # Errors
//
// Failures carry the offending id, parameter or build chain and match the
// package sentinels with errors.Is: ErrNotFound, ErrCircularReference,
// ErrUnresolvableParameter, ErrTypeMismatch, ErrBuildFailure, ErrInvariant.
// Nothing is retried or recovered inside the engine.
//
// # Concurrency
//
// A Builder is single-threaded; independent builders (clones) share nothing
// mutable and may be used concurrently with each other against one locked
// registry.
package container
