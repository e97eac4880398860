package remotedram

import (
	"context"
	"testing"
	"time"
)

func openPair(t *testing.T, addr string) (*Driver, *Driver) {
	t.Helper()

	srv, err := Open(context.Background(), Config{Driver: DriverName, ListenAddr: addr})
	if err != nil {
		t.Fatalf("Open (server) failed: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	cli, err := Open(context.Background(), Config{Driver: DriverName, RemoteAddr: addr})
	if err != nil {
		t.Fatalf("Open (client) failed: %v", err)
	}
	t.Cleanup(func() { cli.Close() })

	return srv, cli
}

// Scenario 1: single round trip, string value.
func TestScenarioSingleRoundTrip(t *testing.T) {
	_, cli := openPair(t, "127.0.0.1:12345")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := cli.Write(ctx, []byte("hello"), []byte("world from client!")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	res, err := cli.Read(ctx, []byte("hello"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !res.Found || string(res.Value) != "world from client!" {
		t.Fatalf("Read = %+v, want Value(\"world from client!\")", res)
	}
}

// Scenario 2: numeric-looking value.
func TestScenarioNumericValue(t *testing.T) {
	_, cli := openPair(t, "127.0.0.1:12445")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := cli.Write(ctx, []byte("test_number"), []byte("42")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	res, err := cli.Read(ctx, []byte("test_number"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !res.Found || string(res.Value) != "42" {
		t.Fatalf("Read = %+v, want Value(\"42\")", res)
	}
}

// Scenario 3: tensor-like payload.
func TestScenarioTensorLikePayload(t *testing.T) {
	_, cli := openPair(t, "127.0.0.1:12545")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	want := "10,20,30,40,50,60,70,80,90"
	if _, err := cli.Write(ctx, []byte("test_tensor_data"), []byte(want)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	res, err := cli.Read(ctx, []byte("test_tensor_data"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !res.Found || string(res.Value) != want {
		t.Fatalf("Read = %+v, want Value(%q)", res, want)
	}
}

// Scenario 4: missing key.
func TestScenarioMissingKey(t *testing.T) {
	_, cli := openPair(t, "127.0.0.1:12645")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := cli.Read(ctx, []byte("non_existent_key"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Found {
		t.Fatalf("Read = %+v, want Missing", res)
	}
}

// Scenario 5: overwrite semantics.
func TestScenarioOverwrite(t *testing.T) {
	_, cli := openPair(t, "127.0.0.1:12745")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := cli.Write(ctx, []byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Write v1 failed: %v", err)
	}
	if _, err := cli.Write(ctx, []byte("k"), []byte("v2")); err != nil {
		t.Fatalf("Write v2 failed: %v", err)
	}
	res, err := cli.Read(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !res.Found || string(res.Value) != "v2" {
		t.Fatalf("Read = %+v, want Value(\"v2\")", res)
	}
}

// Scenario 6: batch writes.
func TestScenarioBatchWrites(t *testing.T) {
	srv, cli := openPair(t, "127.0.0.1:12845")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries := map[string]string{
		"user:alice":          "Alice Johnson - Software Engineer",
		"user:bob":            "Bob Smith - Site Reliability Engineer",
		"config:cache_size":   "1024MB",
		"config:max_conns":    "256",
		"config:timeout_ms":   "5000",
		"region:us-east-1":    "primary",
		"region:us-west-2":    "secondary",
		"feature:dark_mode":   "enabled",
		"feature:beta_access": "disabled",
		"metric:requests":     "0",
		"metric:errors":       "0",
		"version:build":       "2026.08.06",
	}

	for key, value := range entries {
		if _, err := cli.Write(ctx, []byte(key), []byte(value)); err != nil {
			t.Fatalf("Write(%q) failed: %v", key, err)
		}
	}

	if count := srv.store.Count(); count < len(entries) {
		t.Fatalf("server count = %d, want >= %d", count, len(entries))
	}

	for key, want := range entries {
		res, err := cli.Read(ctx, []byte(key))
		if err != nil {
			t.Fatalf("Read(%q) failed: %v", key, err)
		}
		if !res.Found || string(res.Value) != want {
			t.Fatalf("Read(%q) = %+v, want Value(%q)", key, res, want)
		}
	}
}
