package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	deliverydom "github.com/orderflow/fulfillment-service/internal/delivery/domain"
	deliverypg "github.com/orderflow/fulfillment-service/internal/delivery/infrastructure/postgres"
)

func TestDeliveryHistoryPersistsAgainstPostgres(t *testing.T) {
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run container-backed tests")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	if err != nil {
		t.Fatalf("setup containers: %v", err)
	}
	defer env.Teardown(ctx)

	pool, err := pgxpool.New(ctx, env.PGURL)
	if err != nil {
		t.Fatalf("pg connect: %v", err)
	}
	defer pool.Close()

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := deliverypg.NewRepository(log, pool)

	// A lazily created delivery carries its initial pending entry plus the
	// transition that created it; both must land on the first save.
	d := deliverydom.New("ord-1", "trk-1")
	d.Transition(deliverydom.StatusShipped)
	if err := repo.Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetByOrderID(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.History) != 2 {
		t.Fatalf("history length = %d, want 2 (pending + shipped)", len(got.History))
	}
	if got.History[0].Status != deliverydom.StatusPending || got.History[1].Status != deliverydom.StatusShipped {
		t.Fatalf("history = %+v, want pending then shipped", got.History)
	}

	// A later save must append only the new entry.
	got.Transition(deliverydom.StatusInTransit)
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("save transition: %v", err)
	}
	again, err := repo.GetByOrderID(ctx, "ord-1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if len(again.History) != 3 || again.History[2].Status != deliverydom.StatusInTransit {
		t.Fatalf("history = %+v, want three entries ending in in_transit", again.History)
	}
}
