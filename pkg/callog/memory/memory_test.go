package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/modelgate/modelgate/pkg/api"
	"github.com/modelgate/modelgate/pkg/callog"
)

func makeRecord(id string) *callog.CallRecord {
	return &callog.CallRecord{
		ID:       id,
		Provider: "deepseek",
		Model:    "deepseek-chat",
		Status:   callog.StatusOK,
		Result: &api.ChatResult{
			ID:      "chatcmpl-" + id,
			Model:   "deepseek-chat",
			Created: 1000,
			Choices: []api.Choice{
				{Index: 0, Message: api.ChoiceMessage{Role: "assistant", Content: "hi"}, FinishReason: "stop"},
			},
			Usage: api.UsageStats{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
		},
		DurationMS: 42,
		CreatedAt:  1000,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	rec := makeRecord("call_test1")
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get(ctx, "call_test1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.ID != "call_test1" {
		t.Errorf("ID = %q, want %q", got.ID, "call_test1")
	}
	if got.Provider != "deepseek" {
		t.Errorf("Provider = %q, want %q", got.Provider, "deepseek")
	}
	if got.Status != callog.StatusOK {
		t.Errorf("Status = %q, want %q", got.Status, callog.StatusOK)
	}
	if got.Result == nil || got.Result.Usage.TotalTokens != 7 {
		t.Errorf("Result not preserved: %+v", got.Result)
	}
}

func TestGetNotFound(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	_, err := s.Get(ctx, "call_missing")
	if !errors.Is(err, callog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateSave(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	rec := makeRecord("call_dup")
	s.Save(ctx, rec)

	err := s.Save(ctx, rec)
	if !errors.Is(err, callog.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	s := New(0)
	if err := s.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestLRUEviction(t *testing.T) {
	s := New(3) // max 3 entries
	ctx := context.Background()

	s.Save(ctx, makeRecord("call_a"))
	s.Save(ctx, makeRecord("call_b"))
	s.Save(ctx, makeRecord("call_c"))

	// All three should be accessible.
	for _, id := range []string{"call_a", "call_b", "call_c"} {
		if _, err := s.Get(ctx, id); err != nil {
			t.Fatalf("expected %s to exist, got %v", id, err)
		}
	}

	// Save a 4th: oldest (call_a) should be evicted.
	s.Save(ctx, makeRecord("call_d"))

	if _, err := s.Get(ctx, "call_a"); !errors.Is(err, callog.ErrNotFound) {
		t.Error("expected call_a to be evicted")
	}

	// call_b, call_c, call_d should still exist.
	for _, id := range []string{"call_b", "call_c", "call_d"} {
		if _, err := s.Get(ctx, id); err != nil {
			t.Errorf("expected %s to exist after eviction, got %v", id, err)
		}
	}
}

func TestLRUEviction_Unlimited(t *testing.T) {
	s := New(0) // unlimited
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		s.Save(ctx, makeRecord(fmt.Sprintf("call_%03d", i)))
	}

	// All should exist (no eviction).
	s.mu.RLock()
	count := len(s.entries)
	s.mu.RUnlock()

	if count != 100 {
		t.Errorf("expected 100 entries, got %d", count)
	}
}

func TestSubjectIsolation(t *testing.T) {
	s := New(0)

	ctxA := callog.SetSubject(context.Background(), "key-a")
	ctxB := callog.SetSubject(context.Background(), "key-b")
	ctxNone := context.Background()

	// Save for subject A.
	s.Save(ctxA, makeRecord("call_a1"))

	// Subject A can retrieve.
	got, err := s.Get(ctxA, "call_a1")
	if err != nil {
		t.Fatalf("subject A should retrieve own record: %v", err)
	}
	if got.Subject != "key-a" {
		t.Errorf("record Subject = %q, want %q", got.Subject, "key-a")
	}

	// Subject B cannot retrieve.
	if _, err := s.Get(ctxB, "call_a1"); !errors.Is(err, callog.ErrNotFound) {
		t.Error("subject B should not see subject A's record")
	}

	// No subject (unscoped mode) can retrieve.
	if _, err := s.Get(ctxNone, "call_a1"); err != nil {
		t.Fatalf("no-subject context should see all records: %v", err)
	}
}

func TestList_DefaultOrder(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	for i, id := range []string{"call_old", "call_mid", "call_new"} {
		rec := makeRecord(id)
		rec.CreatedAt = int64(1000 + i)
		s.Save(ctx, rec)
	}

	list, err := s.List(ctx, callog.ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if list.Object != "list" {
		t.Errorf("Object = %q, want %q", list.Object, "list")
	}
	if len(list.Data) != 3 {
		t.Fatalf("len(Data) = %d, want 3", len(list.Data))
	}
	// Default order is desc: newest first.
	if list.Data[0].ID != "call_new" || list.Data[2].ID != "call_old" {
		t.Errorf("order = [%s, %s, %s], want newest first",
			list.Data[0].ID, list.Data[1].ID, list.Data[2].ID)
	}
	if list.FirstID != "call_new" || list.LastID != "call_old" {
		t.Errorf("FirstID/LastID = %q/%q, want call_new/call_old", list.FirstID, list.LastID)
	}
	if list.HasMore {
		t.Error("HasMore should be false for 3 records under default limit")
	}
}

func TestList_AscendingOrder(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	for i, id := range []string{"call_old", "call_new"} {
		rec := makeRecord(id)
		rec.CreatedAt = int64(1000 + i)
		s.Save(ctx, rec)
	}

	list, err := s.List(ctx, callog.ListOptions{Order: "asc"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list.Data[0].ID != "call_old" {
		t.Errorf("first record = %q, want call_old", list.Data[0].ID)
	}
}

func TestList_ProviderAndModelFilters(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	recA := makeRecord("call_ds")
	recB := makeRecord("call_qwen")
	recB.Provider = "aliyun"
	recB.Model = "qwen-plus"
	s.Save(ctx, recA)
	s.Save(ctx, recB)

	list, err := s.List(ctx, callog.ListOptions{Provider: "aliyun"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != "call_qwen" {
		t.Errorf("provider filter returned %d records, want only call_qwen", len(list.Data))
	}

	list, err = s.List(ctx, callog.ListOptions{Model: "deepseek-chat"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != "call_ds" {
		t.Errorf("model filter returned %d records, want only call_ds", len(list.Data))
	}
}

func TestList_Pagination(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := makeRecord(fmt.Sprintf("call_%d", i))
		rec.CreatedAt = int64(1000 + i)
		s.Save(ctx, rec)
	}

	// First page: 2 records, newest first.
	page, err := s.List(ctx, callog.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(page.Data))
	}
	if page.Data[0].ID != "call_4" || page.Data[1].ID != "call_3" {
		t.Errorf("first page = [%s, %s], want [call_4, call_3]", page.Data[0].ID, page.Data[1].ID)
	}
	if !page.HasMore {
		t.Error("HasMore should be true with 3 records remaining")
	}

	// Second page via After cursor.
	page, err = s.List(ctx, callog.ListOptions{Limit: 2, After: page.LastID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Data[0].ID != "call_2" || page.Data[1].ID != "call_1" {
		t.Errorf("second page = [%s, %s], want [call_2, call_1]", page.Data[0].ID, page.Data[1].ID)
	}

	// Before cursor returns everything ahead of the given ID.
	page, err = s.List(ctx, callog.ListOptions{Before: "call_2"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Data) != 2 || page.Data[0].ID != "call_4" {
		t.Errorf("before page = %d records starting %s, want 2 starting call_4",
			len(page.Data), page.Data[0].ID)
	}
}

func TestList_AfterUnknownCursor(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	s.Save(ctx, makeRecord("call_only"))

	list, err := s.List(ctx, callog.ListOptions{After: "call_nope"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Data) != 0 {
		t.Errorf("unknown cursor should yield empty page, got %d records", len(list.Data))
	}
	if list.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}
}

func TestList_SubjectScoped(t *testing.T) {
	s := New(0)

	ctxA := callog.SetSubject(context.Background(), "key-a")
	ctxB := callog.SetSubject(context.Background(), "key-b")

	s.Save(ctxA, makeRecord("call_a1"))
	s.Save(ctxB, makeRecord("call_b1"))

	list, err := s.List(ctxA, callog.ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != "call_a1" {
		t.Errorf("subject A list = %d records, want only call_a1", len(list.Data))
	}

	// Unscoped context sees everything.
	list, err = s.List(context.Background(), callog.ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Data) != 2 {
		t.Errorf("unscoped list = %d records, want 2", len(list.Data))
	}
}
