package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

func vpnModel(t *testing.T) *model.Model {
	t.Helper()
	reg, err := model.NewBuiltinRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	m, _ := reg.Lookup(model.ModelTestVPN)
	return m
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := vpnModel(t)

	r := model.NewRecord(m, "b").Set("host", "h").Set("port", int64(2222))
	inserted, err := s.InsertRecordIfAbsent(ctx, r)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = s.InsertRecordIfAbsent(ctx, model.NewRecord(m, "b").Set("host", "other"))
	if err != nil || inserted {
		t.Fatalf("second insert: inserted=%v err=%v", inserted, err)
	}

	got, err := s.GetRecord(ctx, m, "b")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Values["host"] != "h" || got.Values["port"] != int64(2222) {
		t.Fatalf("unexpected record: %+v", got.Values)
	}

	// Returned records are copies.
	got.Values["host"] = "mutated"
	again, _ := s.GetRecord(ctx, m, "b")
	if again.Values["host"] != "h" {
		t.Fatal("store contents changed through a returned record")
	}

	if _, err := s.InsertRecordIfAbsent(ctx, model.NewRecord(m, "a").Set("host", "h0")); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListRecords(ctx, m)
	if err != nil || len(list) != 2 || list[0].Data != "a" {
		t.Fatalf("ListRecords = %v, %v", list, err)
	}

	if err := s.DeleteRecord(ctx, m, "b"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, err := s.GetRecord(ctx, m, "b"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
	if err := s.DeleteRecord(ctx, m, "b"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows deleting twice, got %v", err)
	}
}

func TestMemoryStore_RejectsInvalidRecord(t *testing.T) {
	s := New()
	_, err := s.InsertRecordIfAbsent(context.Background(), model.NewRecord(vpnModel(t), "k").Set("port", "x"))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMemoryStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := vpnModel(t)
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if _, err := tx.InsertRecordIfAbsent(ctx, model.NewRecord(m, "k").Set("host", "h")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetRecord(ctx, m, "k"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected rollback to remove record, got %v", err)
	}

	err = s.RunInTransaction(ctx, func(tx store.Store) error {
		_, err := tx.InsertRecordIfAbsent(ctx, model.NewRecord(m, "k").Set("host", "h"))
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.GetRecord(ctx, m, "k"); err != nil {
		t.Fatalf("expected committed record, got %v", err)
	}
}
