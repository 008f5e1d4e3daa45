package instance

import "testing"

func TestIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("WORKER_ID", "worker-3")
	if got := ID(); got != "web.1" {
		t.Fatalf("expected dyno name, got %q", got)
	}
}

func TestIDFallsBack(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("WORKER_ID", " worker-3 ")
	if got := ID(); got != "worker-3" {
		t.Fatalf("expected worker id, got %q", got)
	}
	t.Setenv("WORKER_ID", "")
	if got := ID(); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
}
