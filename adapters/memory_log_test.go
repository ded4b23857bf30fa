package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

func sampleLog(id string, date time.Time) *entities.TrainingLog {
	return &entities.TrainingLog{
		ID:      id,
		Date:    date,
		Context: "Coffee Shop Scenario",
		Conversation: []entities.Message{
			entities.NewUserMessage("one latte please", nil),
			entities.NewAIMessage("Coming right up!"),
		},
		Score: 100,
	}
}

func TestMemoryLogStoreSaveAndGet(t *testing.T) {
	store := NewMemoryLogStore()
	ctx := context.Background()

	log := sampleLog("log-1", time.Now())
	if err := store.Save(ctx, log); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.GetByID(ctx, "log-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Context != log.Context || len(got.Conversation) != 2 {
		t.Errorf("Unexpected log returned: %+v", got)
	}

	// Stored log must be isolated from caller mutation.
	log.Conversation[0].Text = "mutated"
	got2, _ := store.GetByID(ctx, "log-1")
	if got2.Conversation[0].Text != "one latte please" {
		t.Error("Expected stored conversation isolated from caller")
	}
}

func TestMemoryLogStoreGetMissing(t *testing.T) {
	store := NewMemoryLogStore()
	if _, err := store.GetByID(context.Background(), "nope"); !errors.Is(err, repositories.ErrLogNotFound) {
		t.Errorf("Expected ErrLogNotFound, got %v", err)
	}
}

func TestMemoryLogStoreListNewestFirst(t *testing.T) {
	store := NewMemoryLogStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	store.Save(ctx, sampleLog("old", base))
	store.Save(ctx, sampleLog("new", base.Add(time.Hour)))
	store.Save(ctx, sampleLog("mid", base.Add(time.Minute)))

	logs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("Expected 3 logs, got %d", len(logs))
	}
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if logs[i].ID != id {
			t.Errorf("Expected log %d to be %q, got %q", i, id, logs[i].ID)
		}
	}
}

func TestMemoryLogStoreRejectsInvalid(t *testing.T) {
	store := NewMemoryLogStore()
	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("Expected error for nil log")
	}
	if err := store.Save(context.Background(), &entities.TrainingLog{}); err == nil {
		t.Error("Expected error for log without id")
	}
}
