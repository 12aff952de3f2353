package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jacentio/lattice/schema"
	"github.com/jacentio/lattice/store"
)

func TestRemove_ArchivesToHistory(t *testing.T) {
	f := newFixture(t, store.Config{}, productsTable())
	ctx := context.Background()
	created := mustCreate(t, f, "PRODUCTS", map[string]any{"name": "widget", "stock": 5}, productKeys())

	res, err := f.store.Remove(ctx, "PRODUCTS", "", created.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if res.ID != created.ID || res.HistoryID != 1 {
		t.Errorf("remove = {id %d, historyId %d}, want {%d, 1}", res.ID, res.HistoryID, created.ID)
	}

	if _, err := f.store.Read(ctx, "PRODUCTS", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after Remove, got %v", err)
	}

	// The archived row carries the history-scoped id and the version at
	// deletion time.
	row, err := f.grid.ReadRow(ctx, "PRODUCTS_HISTORY", 2)
	if err != nil {
		t.Fatalf("read history row: %v", err)
	}
	if len(row) < 5 {
		t.Fatalf("short history row %v", row)
	}
	if row[0] != int64(1) {
		t.Errorf("history id = %v, want 1", row[0])
	}
	if row[2] != int64(1) {
		t.Errorf("archived version = %v, want 1", row[2])
	}
	if row[3] != "widget" {
		t.Errorf("archived name = %v", row[3])
	}
}

func TestRemove_NotFound(t *testing.T) {
	f := newFixture(t, store.Config{}, productsTable())

	_, err := f.store.Remove(context.Background(), "PRODUCTS", "", 7)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func relationTables() []schema.Table {
	return []schema.Table{
		{
			Name:      "PRODUCT",
			Versioned: true,
			Fields:    []schema.Field{schema.F("name", schema.String)},
		},
		{
			Name:   "ORDER",
			Fields: []schema.Field{schema.F("total", schema.Number)},
		},
		{
			Name: "ORDER_PRODUCT_RELATION",
			Fields: []schema.Field{
				schema.F("order_id", schema.Number),
				schema.F("product_id", schema.Number),
			},
		},
	}
}

func TestRemoveWithCascade(t *testing.T) {
	f := newFixture(t, store.Config{}, relationTables()...)
	ctx := context.Background()

	product := mustCreate(t, f, "PRODUCT", map[string]any{"name": "widget"}, []string{"name"})
	keep := mustCreate(t, f, "PRODUCT", map[string]any{"name": "gadget"}, []string{"name"})
	order := mustCreate(t, f, "ORDER", map[string]any{"total": 10}, []string{"total"})

	junctionKeys := []string{"order_id", "product_id"}
	mustCreate(t, f, "ORDER_PRODUCT_RELATION",
		map[string]any{"order_id": order.ID, "product_id": product.ID}, junctionKeys)
	mustCreate(t, f, "ORDER_PRODUCT_RELATION",
		map[string]any{"order_id": order.ID, "product_id": product.ID}, junctionKeys)
	kept := mustCreate(t, f, "ORDER_PRODUCT_RELATION",
		map[string]any{"order_id": order.ID, "product_id": keep.ID}, junctionKeys)

	res, err := f.store.RemoveWithCascade(ctx, "PRODUCT", "", product.ID)
	if err != nil {
		t.Fatalf("RemoveWithCascade failed: %v", err)
	}
	if res.Cascaded != 2 {
		t.Errorf("cascaded = %d, want 2", res.Cascaded)
	}

	if _, err := f.store.Read(ctx, "PRODUCT", product.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("parent survived cascade: %v", err)
	}

	remaining, err := f.store.GetAll(ctx, "ORDER_PRODUCT_RELATION", store.GetAllOptions{NoCache: true})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if remaining.Total != 1 || remaining.Records[0].ID != kept.ID {
		t.Errorf("expected only relation %d to survive, got %v", kept.ID, remaining.Records)
	}
}

func TestRemoveWithCascade_NoRelations(t *testing.T) {
	f := newFixture(t, store.Config{}, productsTable())
	created := mustCreate(t, f, "PRODUCTS", map[string]any{"name": "widget", "stock": 5}, productKeys())

	res, err := f.store.RemoveWithCascade(context.Background(), "PRODUCTS", "", created.ID)
	if err != nil {
		t.Fatalf("RemoveWithCascade failed: %v", err)
	}
	if res.Cascaded != 0 {
		t.Errorf("cascaded = %d, want 0", res.Cascaded)
	}
}

func TestRemoveMany(t *testing.T) {
	f := newFixture(t, store.Config{}, productsTable())
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a", "b", "c"} {
		res := mustCreate(t, f, "PRODUCTS", map[string]any{"name": name, "stock": 1}, productKeys())
		ids = append(ids, res.ID)
	}

	// Absent ids are skipped, not errors.
	removed, err := f.store.RemoveMany(ctx, "PRODUCTS", "", []int64{ids[0], ids[1], 99})
	if err != nil {
		t.Fatalf("RemoveMany failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	all, err := f.store.GetAll(ctx, "PRODUCTS", store.GetAllOptions{NoCache: true})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if all.Total != 1 || all.Records[0].ID != ids[2] {
		t.Errorf("expected only id %d to survive, total %d", ids[2], all.Total)
	}
}
