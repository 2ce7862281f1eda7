package main

import (
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/km-arc/go-container/config"
	"github.com/km-arc/go-container/container"
	"github.com/km-arc/go-container/routing"
	"github.com/km-arc/go-container/typeref"
)

// Demo application: a small HTTP greeting service wired entirely through
// the container. Run it, then: curl localhost:8000/greet/world

// Greeter produces a greeting for a name.
type Greeter interface {
	Greet(name string) string
}

// PlainGreeter is the default Greeter.
type PlainGreeter struct {
	Prefix string
}

func NewPlainGreeter(prefix string) *PlainGreeter {
	return &PlainGreeter{Prefix: prefix}
}

func (g *PlainGreeter) Greet(name string) string {
	return g.Prefix + ", " + name + "!"
}

// GreetHandler serves greetings over HTTP.
type GreetHandler struct {
	greeter Greeter
}

func NewGreetHandler(greeter Greeter) *GreetHandler {
	return &GreetHandler{greeter: greeter}
}

func (h *GreetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, h.greeter.Greet(routing.Param(r, "name")))
}

// appProvider installs the demo's bindings.
type appProvider struct {
	container.BaseProvider
}

func (p *appProvider) Register(reg *container.Registry) error {
	if err := reg.Register("greeter", "main.PlainGreeter"); err != nil {
		return err
	}
	// Class-scoped override: applies under every id resolving PlainGreeter.
	if err := reg.SetParameter("main.PlainGreeter", "prefix", config.Get("GREET_PREFIX", "Hello")); err != nil {
		return err
	}
	if err := reg.BindInterface("main.PlainGreeter", "main.Greeter"); err != nil {
		return err
	}
	return reg.Register("handler", "main.GreetHandler")
}

func newUniverse() *typeref.Universe {
	u := typeref.NewUniverse()
	mustOK(u.RegisterInterface("main.Greeter", typeref.InterfaceOf[Greeter]()))
	mustOK(u.RegisterClass(&typeref.Class{
		Name:   "main.PlainGreeter",
		New:    NewPlainGreeter,
		Params: []typeref.Param{{Name: "prefix"}},
	}))
	mustOK(u.RegisterClass(&typeref.Class{
		Name:   "main.GreetHandler",
		New:    NewGreetHandler,
		Params: []typeref.Param{{Name: "greeter"}},
	}))
	return u
}

func main() {
	config.LoadEnv()

	reg := container.NewRegistry(newUniverse())
	providers := container.NewProviderRegistry(reg)
	mustOK(providers.Register(&appProvider{}))

	b := container.NewBuilder(reg)
	mustOK(providers.Boot(b))
	reg.Lock()

	raw, err := b.Get("handler")
	mustOK(err)
	handler := raw.(*GreetHandler)

	r := routing.New()
	r.Get("/greet/{name}", handler.ServeHTTP)

	addr := ":" + config.Get("APP_PORT", "8000")
	log.Infof("greeting service listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func mustOK(err error) {
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
}
