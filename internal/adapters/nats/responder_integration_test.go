//go:build integration
// +build integration

package natsadapter_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	natsadapter "github.com/samirrijal/geocover/internal/adapters/nats"
	"github.com/samirrijal/geocover/internal/adapters/clip"
	"github.com/samirrijal/geocover/internal/core/usecases"
)

func TestResponder_RoundTrip(t *testing.T) {
	url := os.Getenv("GEOCOVER_NATS_URL")
	if url == "" {
		url = "nats://localhost:4222"
	}
	conn, err := natsadapter.Connect(url, "geocover-test")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	svc := usecases.NewCoverageService(clip.New(clip.Planar), 1)
	r := natsadapter.NewResponder(conn, svc)
	defer r.Close()

	subject := "coverage.test." + time.Now().Format("150405.000000")
	if err := r.Serve(context.Background(), subject, "geocover-test"); err != nil {
		t.Fatalf("serve: %v", err)
	}

	client := natsadapter.NewClient(conn, subject, 5*time.Second)
	square := `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]}`
	half := `{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,4],[0,4],[0,0]]]}`

	data, err := client.Coverage(context.Background(), []byte(`{"areaToBeCovered":{"area":`+square+`},"intersectingCandidates":[{"area":`+half+`}]}`))
	if err != nil {
		t.Fatalf("coverage: %v", err)
	}
	if !strings.Contains(string(data), `"covered%":50`) {
		t.Errorf("expected 50%% coverage, got %s", data)
	}

	_, err = client.Coverage(context.Background(), []byte(`{"areaToBeCovered":{"area":{"type":"Point","coordinates":[0,0]}}}`))
	var remote *natsadapter.RemoteError
	if !errors.As(err, &remote) || remote.Code != "invalid_geometry_kind" {
		t.Errorf("expected remote invalid_geometry_kind, got %v", err)
	}
}
