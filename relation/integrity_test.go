package relation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jacentio/lattice/relation"
	"github.com/jacentio/lattice/store"
)

func TestCheckTableIntegrity(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	order := createOrder(t, e, 10)
	widget := createProduct(t, e, "widget")
	gone := createProduct(t, e, "gone")
	relate(t, e, order, widget)
	orphan := relate(t, e, order, gone)

	// Plain remove leaves the junction row dangling.
	if _, err := e.Store().Remove(ctx, "PRODUCT", "", gone); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	removed, err := e.CheckTableIntegrity(ctx, junctionTable, "")
	if err != nil {
		t.Fatalf("CheckTableIntegrity failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := e.Store().Read(ctx, junctionTable, orphan); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("orphan row survived repair: %v", err)
	}

	// A clean table repairs nothing.
	removed, err = e.CheckTableIntegrity(ctx, junctionTable, "")
	if err != nil {
		t.Fatalf("CheckTableIntegrity failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("second pass removed %d rows", removed)
	}
}

func TestCheckTableIntegrity_NotJunctionTable(t *testing.T) {
	e := newEngine(t)

	if _, err := e.CheckTableIntegrity(context.Background(), "PRODUCT", ""); !errors.Is(err, relation.ErrNotJunctionTable) {
		t.Errorf("expected ErrNotJunctionTable, got %v", err)
	}
}

func TestDeleteRelatedJunctionRecords(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	order := createOrder(t, e, 10)
	other := createOrder(t, e, 20)
	widget := createProduct(t, e, "widget")
	relate(t, e, order, widget)
	relate(t, e, other, widget)

	removed, err := e.DeleteRelatedJunctionRecords(ctx, junctionTable, "", "PRODUCT", widget)
	if err != nil {
		t.Fatalf("DeleteRelatedJunctionRecords failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	all, err := e.Store().GetAll(ctx, junctionTable, store.GetAllOptions{NoCache: true})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if all.Total != 0 {
		t.Errorf("junction rows left = %d, want 0", all.Total)
	}
}
