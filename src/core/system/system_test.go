package system_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"ragbot/src/core/system"
)

func TestCheckHealthAllUp(t *testing.T) {
	svc := system.NewService()
	svc.Register("postgres", func(ctx context.Context) error { return nil })
	svc.Register("weaviate", func(ctx context.Context) error { return nil })

	status := svc.CheckHealth(context.Background())

	if status.Status != "healthy" {
		t.Errorf("CheckHealth() status = %q, want %q", status.Status, "healthy")
	}
	for name, component := range status.Components {
		if component != system.StatusUp {
			t.Errorf("component %s = %q, want %q", name, component, system.StatusUp)
		}
	}
}

func TestCheckHealthReportsFailures(t *testing.T) {
	svc := system.NewService()
	svc.Register("postgres", func(ctx context.Context) error { return nil })
	svc.Register("ollama", func(ctx context.Context) error { return errors.New("connection refused") })

	status := svc.CheckHealth(context.Background())

	if status.Status != "unhealthy" {
		t.Errorf("CheckHealth() status = %q, want %q", status.Status, "unhealthy")
	}
	if got := status.Components["postgres"]; got != system.StatusUp {
		t.Errorf("postgres = %q, want %q", got, system.StatusUp)
	}
	if got := status.Components["ollama"]; got != system.StatusDown {
		t.Errorf("ollama = %q, want %q", got, system.StatusDown)
	}
}

func TestCheckHealthNoChecks(t *testing.T) {
	svc := system.NewService()

	status := svc.CheckHealth(context.Background())

	if status.Status != "healthy" {
		t.Errorf("CheckHealth() status = %q, want %q", status.Status, "healthy")
	}
	if len(status.Components) != 0 {
		t.Errorf("CheckHealth() components = %v, want empty", status.Components)
	}
}

func TestNamesSorted(t *testing.T) {
	svc := system.NewService()
	svc.Register("weaviate", func(ctx context.Context) error { return nil })
	svc.Register("minio", func(ctx context.Context) error { return nil })
	svc.Register("postgres", func(ctx context.Context) error { return nil })

	got := svc.Names()
	want := []string{"minio", "postgres", "weaviate"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
