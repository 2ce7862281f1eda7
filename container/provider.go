package container

// ── ServiceProvider interface ────────────────────────────────────────────────

// ServiceProvider is a composition unit that installs bindings into a
// registry. Register runs while the registry is still mutable; Boot runs
// after all providers have registered, against a builder, so it may safely
// resolve anything another provider bound.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(reg *container.Registry) error {
//	    return reg.Register("mailer", "app.SMTPMailer")
//	}
type ServiceProvider interface {
	// Register binds services into the registry. Do not resolve other
	// bindings here; use Boot for that.
	Register(reg *Registry) error

	// Boot is called after all providers are registered.
	Boot(b *Builder) error
}

// BaseProvider is an embeddable struct providing a no-op Boot. Embed it and
// override only what you need.
type BaseProvider struct{}

func (BaseProvider) Boot(*Builder) error { return nil }

// ── ProviderRegistry ─────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders.
// Composition code registers every provider, boots once with the builder it
// will hand out, then conventionally locks the registry.
type ProviderRegistry struct {
	reg        *Registry
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
	builder    *Builder
}

func NewProviderRegistry(reg *Registry) *ProviderRegistry {
	return &ProviderRegistry{
		reg:        reg,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and runs its Register phase. Registering the
// same provider twice is a no-op; registering after Boot additionally boots
// the provider immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true
	if err := provider.Register(r.reg); err != nil {
		return err
	}
	r.providers = append(r.providers, provider)
	if r.booted {
		return provider.Boot(r.builder)
	}
	return nil
}

// Boot runs the Boot phase on all registered providers, once.
func (r *ProviderRegistry) Boot(b *Builder) error {
	if r.booted {
		return nil
	}
	r.booted = true
	r.builder = b
	for _, provider := range r.providers {
		if err := provider.Boot(b); err != nil {
			return err
		}
	}
	return nil
}

// Booted reports whether Boot has run.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }
