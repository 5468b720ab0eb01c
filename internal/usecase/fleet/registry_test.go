package fleet

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"fleetd/internal/domain"
	"fleetd/internal/usecase/supervisor"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestSupervisor(name string, ordinal int) *supervisor.Supervisor {
	return supervisor.New(
		domain.AgentDescriptor{Name: name, Profile: name + ".yaml", Ordinal: ordinal},
		supervisor.Config{Worker: "/bin/true"},
		supervisor.Options{Fatal: func(int) {}},
	)
}

func TestRegisterAndGet(t *testing.T) {
	reg := newTestRegistry()
	sup := newTestSupervisor("alpha", 0)

	if err := reg.Register("alpha", sup); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := reg.Get("alpha")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != sup {
		t.Error("Get returned a different supervisor")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := newTestRegistry()
	if err := reg.Register("alpha", newTestSupervisor("alpha", 0)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := reg.Register("alpha", newTestSupervisor("alpha", 1))
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("duplicate Register error = %v, want ErrDuplicate", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}
}

func TestGetUnknown(t *testing.T) {
	reg := newTestRegistry()
	_, err := reg.Get("ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestNamesSorted(t *testing.T) {
	reg := newTestRegistry()
	for i, name := range []string{"charlie", "alpha", "bravo"} {
		if err := reg.Register(name, newTestSupervisor(name, i)); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}
	want := []string{"alpha", "bravo", "charlie"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestListReportsIdleAgents(t *testing.T) {
	reg := newTestRegistry()
	if err := reg.Register("alpha", newTestSupervisor("alpha", 0)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	statuses := reg.List()
	if len(statuses) != 1 {
		t.Fatalf("List length = %d, want 1", len(statuses))
	}
	if statuses[0].Name != "alpha" || statuses[0].State != domain.AgentIdle {
		t.Errorf("status = %+v, want idle alpha", statuses[0])
	}
}
