package models

import (
	"testing"
	"time"
)

func TestInvoiceDocumentLifecycle(t *testing.T) {
	doc := &InvoiceDocument{Serie: "A", Number: "7", Status: StatusDraft}
	if !doc.IsPending() {
		t.Fatal("draft should be pending")
	}

	doc.MarkSaved()
	if doc.Status != StatusSaved || !doc.IsPending() {
		t.Fatalf("after save: status=%s pending=%v", doc.Status, doc.IsPending())
	}

	ts := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	doc.MarkGenerated(ts)
	if doc.IsPending() || !doc.Generated || !doc.GeneratedAt.Equal(ts) {
		t.Fatalf("after generate: %+v", doc)
	}

	// Editing after export returns to Saved but keeps the timestamp.
	doc.MarkSaved()
	if !doc.IsPending() {
		t.Error("edited document should be pending again")
	}
	if doc.GeneratedAt == nil || !doc.GeneratedAt.Equal(ts) {
		t.Error("edit cleared the generation timestamp")
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		doc  InvoiceDocument
		want string
	}{
		{InvoiceDocument{Serie: "A", Number: "1"}, "A|1"},
		{InvoiceDocument{Serie: "A", Number: "1", LongSIINumber: "2025-A-0001"}, "2025-A-0001"},
		{InvoiceDocument{Number: " 9 "}, "|9"},
	}
	for _, tt := range tests {
		if got := tt.doc.Identity(); got != tt.want {
			t.Errorf("Identity() = %q, want %q", got, tt.want)
		}
	}
}

func TestDefaultThirdPartyPrefix(t *testing.T) {
	if got := (&Template{Kind: KindIssued}).DefaultThirdPartyPrefix(); got != "430" {
		t.Errorf("issued prefix = %q", got)
	}
	if got := (&Template{Kind: KindReceived}).DefaultThirdPartyPrefix(); got != "400" {
		t.Errorf("received prefix = %q", got)
	}
	if got := (&Template{Kind: KindReceived, ThirdPartyPrefix: "410"}).DefaultThirdPartyPrefix(); got != "410" {
		t.Errorf("explicit prefix = %q", got)
	}
}
