package store_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vlanspan/pvstd/internal/store"
	"github.com/vlanspan/pvstd/internal/stp"
)

func TestLogPublisherNeverErrors(t *testing.T) {
	p := store.NewLogPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := p.Publish(context.Background(), stp.PublishedRecord{VlanID: 1, IfName: "eth0"}); err != nil {
		t.Fatalf("want nil error, got %v", err)
	}
}
