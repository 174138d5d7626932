package sync

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/zeebo/blake3"

	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

// formatVersion is the JSONL export format written in every header.
const formatVersion = "1"

// header is the first JSONL line of an export.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	ModelCount  int       `json:"model_count"`
	RecordCount int       `json:"record_count"`
	Digest      string    `json:"digest"`
}

// recordLine wraps a single record with the name of its model.
type recordLine struct {
	Type  string        `json:"type"`
	Model string        `json:"model"`
	Data  *model.Record `json:"data"`
}

// Snapshot is one JSONL export of the store.
type Snapshot struct {
	Data    []byte
	Models  int
	Records int
	// Digest is the hex blake3 sum of the record lines. The header is
	// excluded, so two exports of unchanged data share a digest.
	Digest string
}

// ShortDigest returns the first 12 characters of the digest.
func (s *Snapshot) ShortDigest() string {
	if len(s.Digest) <= 12 {
		return s.Digest
	}
	return s.Digest[:12]
}

// Export reads every record of every registered model and renders a
// snapshot: a header line, then one line per record. Models are sorted by
// name and records by key.
func Export(ctx context.Context, s store.Store, reg *model.Registry) (*Snapshot, error) {
	models := reg.Models()

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)

	total := 0
	for _, m := range models {
		recs, err := s.ListRecords(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("list records for %s: %w", m.Name, err)
		}
		for _, r := range recs {
			if err := enc.Encode(recordLine{Type: "record", Model: m.Name, Data: r}); err != nil {
				return nil, fmt.Errorf("encode %s/%s: %w", m.Name, r.Data, err)
			}
		}
		total += len(recs)
	}

	h := blake3.New()
	_, _ = h.Write(body.Bytes())
	digest := hex.EncodeToString(h.Sum(nil))

	var out bytes.Buffer
	out.Grow(body.Len() + 256)
	henc := json.NewEncoder(&out)
	henc.SetEscapeHTML(false)
	if err := henc.Encode(header{
		Version:     formatVersion,
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		ModelCount:  len(models),
		RecordCount: total,
		Digest:      digest,
	}); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	out.Write(body.Bytes())

	return &Snapshot{
		Data:    out.Bytes(),
		Models:  len(models),
		Records: total,
		Digest:  digest,
	}, nil
}

// ExportJSONL writes an export to w. Nothing is written if reading the
// store fails.
func ExportJSONL(ctx context.Context, s store.Store, reg *model.Registry, w io.Writer) error {
	snap, err := Export(ctx, s, reg)
	if err != nil {
		return err
	}
	if _, err := w.Write(snap.Data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
