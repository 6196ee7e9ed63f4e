package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vlanspan/pvstd/internal/store"
	"github.com/vlanspan/pvstd/internal/stp"
)

type recordingPublisher struct {
	records []stp.PublishedRecord
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, rec stp.PublishedRecord) error {
	p.records = append(p.records, rec)
	return p.err
}

func TestEngineAdapterForwardsRecord(t *testing.T) {
	rp := &recordingPublisher{}
	a := store.NewEngineAdapter(rp, slog.New(slog.NewTextHandler(io.Discard, nil)))

	a.Publish(stp.PublishedRecord{VlanID: 7, IfName: "eth0"})

	if len(rp.records) != 1 || rp.records[0].VlanID != 7 {
		t.Fatalf("want record forwarded, got %+v", rp.records)
	}
}

func TestEngineAdapterSwallowsPublishError(t *testing.T) {
	rp := &recordingPublisher{err: errors.New("write failed")}
	a := store.NewEngineAdapter(rp, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic or propagate: stp.Publisher.Publish returns nothing.
	a.Publish(stp.PublishedRecord{VlanID: 1})
}
