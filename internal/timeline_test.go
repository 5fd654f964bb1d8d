package internal

import (
	"fmt"
	"testing"
)

func TestNewTimelineIndex(t *testing.T) {
	ti := NewTimelineIndex()
	if ti == nil {
		t.Fatal("NewTimelineIndex() returned nil")
	}
	if ti.entries == nil {
		t.Fatal("NewTimelineIndex() entries map is nil")
	}
}

func TestTimelineIndex_AppendGet(t *testing.T) {
	ti := NewTimelineIndex()

	ti.Append("msg1", FunctionCallEntry(&FunctionCall{Name: "search_products", ID: "c1"}))
	ti.Append("msg1", SourcesEntry(3))

	got := ti.Get("msg1")
	if len(got) != 2 {
		t.Fatalf("Get() returned %d entries, want 2", len(got))
	}
	if got[0].Title != "Function Call: search_products" {
		t.Errorf("first entry title = %q", got[0].Title)
	}
	if got[1].Title != "📚 Tìm thấy 3 nguồn thông tin" || got[1].Data.Count != 3 {
		t.Errorf("second entry = %+v", got[1])
	}

	got[0].Title = "mutated"
	if ti.Get("msg1")[0].Title == "mutated" {
		t.Error("Get() should return a copy")
	}

	if entries := ti.Get("nonexistent"); entries != nil {
		t.Errorf("Get() for unknown id = %v, want nil", entries)
	}
}

func TestTimelineIndex_ForgetAndReset(t *testing.T) {
	ti := NewTimelineIndex()
	ti.Append("a", SourcesEntry(1))
	ti.Append("b", SourcesEntry(2))

	ti.Forget("a")
	if ti.Len() != 1 {
		t.Errorf("Len() after Forget = %d, want 1", ti.Len())
	}

	ti.Reset()
	if ti.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", ti.Len())
	}
}

func TestTimelineIndex_ConcurrentAccess(t *testing.T) {
	ti := NewTimelineIndex()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			ti.Append(fmt.Sprintf("msg%d", id%3), SourcesEntry(id+1))
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	for i := 0; i < 10; i++ {
		go func(id int) {
			_ = ti.Get(fmt.Sprintf("msg%d", id%3))
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	total := 0
	for i := 0; i < 3; i++ {
		total += len(ti.Get(fmt.Sprintf("msg%d", i)))
	}
	if total != 10 {
		t.Errorf("total entries = %d, want 10", total)
	}
}
