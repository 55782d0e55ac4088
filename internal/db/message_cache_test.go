package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/classmarket/tutorchat/internal/chat"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func TestMessageCache_PutAndThread(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cache := NewMessageCache(db)
	ctx := context.Background()

	messages := []chat.Message{
		{
			ID:          "1",
			JobID:       "10",
			SenderID:    "a",
			RecipientID: "b",
			Body:        "hello",
			CreatedAt:   time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
			Status:      chat.StatusSent,
		},
		{
			ID:          "2",
			JobID:       "11",
			SenderID:    "b",
			RecipientID: "a",
			Body:        "other thread",
			CreatedAt:   time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
			Status:      chat.StatusRead,
		},
	}

	if err := cache.Put(ctx, messages); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	thread, err := cache.Thread(ctx, "10")
	if err != nil {
		t.Fatalf("Thread() error = %v", err)
	}
	if len(thread) != 1 {
		t.Fatalf("expected 1 message in thread 10, got %d", len(thread))
	}
	if thread[0].Body != "hello" {
		t.Errorf("Body = %q, want hello", thread[0].Body)
	}
	if !thread[0].CreatedAt.Equal(messages[0].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", thread[0].CreatedAt, messages[0].CreatedAt)
	}
	if thread[0].Status != chat.StatusSent {
		t.Errorf("Status = %v, want SENT", thread[0].Status)
	}
}

func TestMessageCache_PutOverwrites(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cache := NewMessageCache(db)
	ctx := context.Background()

	original := chat.Message{
		ID: "1", JobID: "10", SenderID: "a", RecipientID: "b",
		Body: "hello", Status: chat.StatusSent,
	}
	if err := cache.Put(ctx, []chat.Message{original}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	updated := original
	updated.Status = chat.StatusRead
	if err := cache.Put(ctx, []chat.Message{updated}); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}

	thread, err := cache.Thread(ctx, "10")
	if err != nil {
		t.Fatalf("Thread() error = %v", err)
	}
	if len(thread) != 1 {
		t.Fatalf("expected 1 message, got %d", len(thread))
	}
	if thread[0].Status != chat.StatusRead {
		t.Errorf("Status = %v, want READ after overwrite", thread[0].Status)
	}
}

func TestMessageCache_SkipsTempMessages(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cache := NewMessageCache(db)
	ctx := context.Background()

	messages := []chat.Message{
		{ID: chat.TempIDPrefix + "x", JobID: "10", SenderID: "a", RecipientID: "b", Body: "pending", Status: chat.StatusSending},
		{ID: "1", JobID: "10", SenderID: "a", RecipientID: "b", Body: "confirmed", Status: chat.StatusSent},
	}
	if err := cache.Put(ctx, messages); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	all, err := cache.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected only the confirmed message, got %d", len(all))
	}
	if all[0].ID != "1" {
		t.Errorf("ID = %q, want 1", all[0].ID)
	}
}

func TestMessageCache_OfflineSummaries(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cache := NewMessageCache(db)
	ctx := context.Background()

	messages := []chat.Message{
		{ID: "1", JobID: "10", SenderID: "a", RecipientID: "b", Body: "old", CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Status: chat.StatusSent},
		{ID: "2", JobID: "11", SenderID: "a", RecipientID: "b", Body: "new", CreatedAt: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), Status: chat.StatusSent},
	}
	if err := cache.Put(ctx, messages); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	all, err := cache.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}

	summaries := chat.Summarize(all, "b")
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].JobID != "11" {
		t.Errorf("first summary job = %s, want 11 (newest activity first)", summaries[0].JobID)
	}
	if summaries[0].UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", summaries[0].UnreadCount)
	}
}
