package container_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/km-arc/go-container/container"
	"github.com/km-arc/go-container/typeref"
)

// ── fixture domain ────────────────────────────────────────────────────────────

type Logger interface{ Log(msg string) }

type MemLogger struct{ Lines []string }

func NewMemLogger() *MemLogger      { return &MemLogger{} }
func (l *MemLogger) Log(msg string) { l.Lines = append(l.Lines, msg) }

type NullLogger struct{}

func NewNullLogger() *NullLogger   { return &NullLogger{} }
func (*NullLogger) Log(msg string) {}

type Settings struct {
	A string
	B int
}

func NewSettings(a string, b int) *Settings { return &Settings{A: a, B: b} }

type Service struct {
	Log  Logger
	Name string
}

func NewService(log Logger, name string) *Service { return &Service{Log: log, Name: name} }

type Ping struct{ Pong *Pong }
type Pong struct{ Ping *Ping }

func NewPing(pong *Pong) *Ping { return &Ping{Pong: pong} }
func NewPong(ping *Ping) *Pong { return &Pong{Ping: ping} }

type Base struct{ Marks []string }
type Sub struct{ Base }

func NewBase() *Base { return &Base{} }
func NewSub() *Sub   { return &Sub{} }

type Reader interface{ Read() string }
type Closer interface{ Close() error }

type File struct{ name string }

func NewFile() *File         { return &File{name: "file"} }
func (f *File) Read() string { return f.name }
func (f *File) Close() error { return nil }

type Socket struct{}

func NewSocket() *Socket       { return &Socket{} }
func (s *Socket) Close() error { return nil }

type Archive struct{ Src any }

func NewArchive(src any) *Archive { return &Archive{Src: src} }

type Defaults struct {
	S    string
	N    int
	F    float64
	Flag bool
	Tags []string
}

func NewDefaults(s string, n int, f float64, flag bool, tags []string) *Defaults {
	return &Defaults{S: s, N: n, F: f, Flag: flag, Tags: tags}
}

type Failing struct{}

func NewFailing() (*Failing, error) { return nil, errors.New("no disk space") }

type Pool struct{ Hosts []string }

func NewPool(hosts ...string) *Pool { return &Pool{Hosts: hosts} }

type Meta struct{ Labels map[string]string }

func NewMeta(labels map[string]string) *Meta { return &Meta{Labels: labels} }

type MaybeLog struct{ Log Logger }

func NewMaybeLog(log Logger) *MaybeLog { return &MaybeLog{Log: log} }

// ── universe & registry helpers ──────────────────────────────────────────────

func newTestUniverse(t *testing.T) *typeref.Universe {
	t.Helper()
	u := typeref.NewUniverse()
	mustOK(t, u.RegisterInterface("test.Logger", typeref.InterfaceOf[Logger]()))
	mustOK(t, u.RegisterInterface("test.Reader", typeref.InterfaceOf[Reader]()))
	mustOK(t, u.RegisterInterface("test.Closer", typeref.InterfaceOf[Closer]()))

	classes := []*typeref.Class{
		{Name: "test.MemLogger", New: NewMemLogger},
		{Name: "test.NullLogger", New: NewNullLogger},
		{Name: "test.Settings", New: NewSettings, Params: []typeref.Param{
			{Name: "a"},
			{Name: "b", Default: 5, HasDefault: true},
		}},
		{Name: "test.Service", New: NewService, Params: []typeref.Param{
			{Name: "log"},
			{Name: "name"},
		}},
		{Name: "test.Ping", New: NewPing, Params: []typeref.Param{{Name: "pong"}}},
		{Name: "test.Pong", New: NewPong, Params: []typeref.Param{{Name: "ping"}}},
		{Name: "test.Base", New: NewBase},
		{Name: "test.Sub", New: NewSub, Extends: "test.Base"},
		{Name: "test.File", New: NewFile},
		{Name: "test.Socket", New: NewSocket},
		{Name: "test.Archive", New: NewArchive, Params: []typeref.Param{
			{Name: "src", Type: typeref.Intersection(
				typeref.Object("test.Reader"),
				typeref.Object("test.Closer"),
			)},
		}},
		{Name: "test.Defaults", New: NewDefaults, Params: []typeref.Param{
			{Name: "s"}, {Name: "n"}, {Name: "f"}, {Name: "flag"}, {Name: "tags"},
		}},
		{Name: "test.Failing", New: NewFailing},
		{Name: "test.Pool", New: NewPool, Params: []typeref.Param{{Name: "hosts"}}},
		{Name: "test.Meta", New: NewMeta, Params: []typeref.Param{{Name: "labels"}}},
		{Name: "test.MaybeLog", New: NewMaybeLog, Params: []typeref.Param{
			{Name: "log", Nullable: true},
		}},
	}
	for _, c := range classes {
		mustOK(t, u.RegisterClass(c))
	}
	return u
}

func newTestRegistry(t *testing.T) *container.Registry {
	t.Helper()
	return container.NewRegistry(newTestUniverse(t))
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
