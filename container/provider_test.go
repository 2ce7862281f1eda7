package container_test

import (
	"testing"

	"github.com/km-arc/go-container/container"
)

type recordingProvider struct {
	container.BaseProvider
	registered int
	booted     int
	bindID     string
}

func (p *recordingProvider) Register(reg *container.Registry) error {
	p.registered++
	if p.bindID != "" {
		return reg.Register(p.bindID, "test.MemLogger")
	}
	return nil
}

type bootingProvider struct {
	booted  int
	builder *container.Builder
}

func (p *bootingProvider) Register(*container.Registry) error { return nil }

func (p *bootingProvider) Boot(b *container.Builder) error {
	p.booted++
	p.builder = b
	return nil
}

func TestProviderRegistry_Register_RunsRegisterPhase(t *testing.T) {
	reg := newTestRegistry(t)
	providers := container.NewProviderRegistry(reg)

	p := &recordingProvider{bindID: "logger"}
	mustOK(t, providers.Register(p))
	if p.registered != 1 {
		t.Errorf("registered %d times, want 1", p.registered)
	}
	if !reg.Has("logger") {
		t.Error("provider's binding should be installed")
	}
}

func TestProviderRegistry_Register_Idempotent(t *testing.T) {
	providers := container.NewProviderRegistry(newTestRegistry(t))

	p := &recordingProvider{}
	mustOK(t, providers.Register(p))
	mustOK(t, providers.Register(p))
	if p.registered != 1 {
		t.Errorf("registered %d times, want 1", p.registered)
	}
	if len(providers.Providers()) != 1 {
		t.Errorf("got %d providers, want 1", len(providers.Providers()))
	}
}

func TestProviderRegistry_Boot_RunsOncePerProvider(t *testing.T) {
	reg := newTestRegistry(t)
	providers := container.NewProviderRegistry(reg)
	b := container.NewBuilder(reg)

	p := &bootingProvider{}
	mustOK(t, providers.Register(p))

	mustOK(t, providers.Boot(b))
	mustOK(t, providers.Boot(b))
	if p.booted != 1 {
		t.Errorf("booted %d times, want 1", p.booted)
	}
	if p.builder != b {
		t.Error("Boot should receive the registry's builder")
	}
	if !providers.Booted() {
		t.Error("Booted() should report true after Boot")
	}
}

func TestProviderRegistry_Register_AfterBootBootsImmediately(t *testing.T) {
	reg := newTestRegistry(t)
	providers := container.NewProviderRegistry(reg)
	b := container.NewBuilder(reg)
	mustOK(t, providers.Boot(b))

	p := &bootingProvider{}
	mustOK(t, providers.Register(p))
	if p.booted != 1 {
		t.Errorf("booted %d times, want 1 (late registration boots immediately)", p.booted)
	}
	if p.builder != b {
		t.Error("late boot should reuse the builder Boot was given")
	}
}

func TestProviderRegistry_BaseProvider_BootIsNoOp(t *testing.T) {
	reg := newTestRegistry(t)
	providers := container.NewProviderRegistry(reg)

	p := &recordingProvider{}
	mustOK(t, providers.Register(p))
	mustOK(t, providers.Boot(container.NewBuilder(reg)))
	if p.booted != 0 {
		t.Errorf("embedded no-op Boot should leave the counter at 0, got %d", p.booted)
	}
}
