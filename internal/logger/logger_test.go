package logger

import "testing"

func TestBuild(t *testing.T) {
	for _, env := range []string{"production", "development", "test", ""} {
		if build(env) == nil {
			t.Errorf("build(%q) returned nil", env)
		}
	}
}

func TestNamed(t *testing.T) {
	Init("test")
	if Named("notify") == nil {
		t.Fatal("Named returned nil")
	}
	Sync()
}
