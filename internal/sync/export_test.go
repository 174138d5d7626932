package sync

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/zeebo/blake3"

	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
	"github.com/groblegark/configstore/internal/store/memory"
)

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// newSeededStore returns a registry and a memory store holding two Test.vpn
// records and one Develop.mr_robot record.
func newSeededStore(t *testing.T) (*model.Registry, *memory.MemoryStore) {
	t.Helper()
	reg, err := model.NewBuiltinRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	ms := memory.New()
	vpn, _ := reg.Lookup(model.ModelTestVPN)
	robot, _ := reg.Lookup(model.ModelDevelopMrRobot)
	for _, r := range []*model.Record{
		model.NewRecord(vpn, "zeta").Set("host", "z.example").Set("port", int64(2)),
		model.NewRecord(vpn, "alpha").Set("host", "a.example").Set("port", int64(1)),
		model.NewRecord(robot, "main").Set("host", "db").Set("port", int64(5432)).Set("schema", "public"),
	} {
		if _, err := ms.InsertRecordIfAbsent(context.Background(), r); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return reg, ms
}

func TestExportJSONL_Empty(t *testing.T) {
	reg, _ := model.NewBuiltinRegistry()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), memory.New(), reg, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.ModelCount != 2 || h.RecordCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_WithRecords(t *testing.T) {
	reg, ms := newSeededStore(t)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, reg, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 3 records
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.RecordCount != 3 {
		t.Errorf("record_count = %d, want 3", h.RecordCount)
	}

	// Models sorted by name, records by key.
	want := []struct{ model, data string }{
		{model.ModelDevelopMrRobot, "main"},
		{model.ModelTestVPN, "alpha"},
		{model.ModelTestVPN, "zeta"},
	}
	for i, w := range want {
		var got struct {
			Type  string         `json:"type"`
			Model string         `json:"model"`
			Data  map[string]any `json:"data"`
		}
		if err := json.Unmarshal([]byte(lines[i+1]), &got); err != nil {
			t.Fatalf("unmarshal line %d: %v", i+1, err)
		}
		if got.Type != "record" || got.Model != w.model || got.Data["Data"] != w.data {
			t.Errorf("line %d = %+v, want %s/%s", i+1, got, w.model, w.data)
		}
	}

	// Record payload uses the wire form, with unset fields as null.
	if !strings.Contains(lines[2], `"data":{"Data":"alpha","Host":"a.example","Port":1,"Virtualhost":null`) {
		t.Errorf("unexpected record encoding: %s", lines[2])
	}
}

type listErrStore struct {
	store.Store
}

func (listErrStore) ListRecords(context.Context, *model.Model) ([]*model.Record, error) {
	return nil, errors.New("boom")
}

func TestExportJSONL_ListError(t *testing.T) {
	reg, _ := model.NewBuiltinRegistry()
	var buf bytes.Buffer
	err := ExportJSONL(context.Background(), listErrStore{Store: memory.New()}, reg, &buf)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected list error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on error, got %q", buf.String())
	}
}

// testSnapshot builds a snapshot around raw JSONL for destination tests.
func testSnapshot(data string, records int) *Snapshot {
	h := blake3.New()
	_, _ = h.Write([]byte(data))
	return &Snapshot{Data: []byte(data), Records: records, Digest: hex.EncodeToString(h.Sum(nil))}
}

func TestExport_DigestTracksRecords(t *testing.T) {
	reg, ms := newSeededStore(t)
	ctx := context.Background()

	first, err := Export(ctx, ms, reg)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if first.Records != 3 || first.Models != 2 || len(first.Digest) != 64 {
		t.Fatalf("snapshot = records %d models %d digest %q", first.Records, first.Models, first.Digest)
	}

	var h header
	if err := json.Unmarshal([]byte(nonEmptyLines(string(first.Data))[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Digest != first.Digest {
		t.Errorf("header digest = %q, want %q", h.Digest, first.Digest)
	}

	// The header timestamp moves, the digest does not.
	again, err := Export(ctx, ms, reg)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if again.Digest != first.Digest {
		t.Errorf("digest changed without a data change: %s vs %s", again.Digest, first.Digest)
	}

	vpn, _ := reg.Lookup(model.ModelTestVPN)
	if _, err := ms.InsertRecordIfAbsent(ctx, model.NewRecord(vpn, "beta").Set("host", "b.example")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	changed, err := Export(ctx, ms, reg)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if changed.Digest == first.Digest {
		t.Error("digest did not change after insert")
	}
	if changed.ShortDigest() != changed.Digest[:12] {
		t.Errorf("ShortDigest = %q", changed.ShortDigest())
	}
}
