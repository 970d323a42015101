package diag

import "testing"

func TestFormatShort(t *testing.T) {
	bag := NewBag(10)
	r := BagReporter{Bag: bag}
	ReportWarning(r, DescEmpty, Location{File: "errors.yaml", Line: 7, Column: 7}, "empty description").Emit()
	ReportError(r, NameDuplicate, Location{File: "errors.yaml", Line: 3, Column: 7}, "name E_X\nused twice").
		WithNote(Location{File: "errors.yaml", Line: 2, Column: 7}, "first declared here").
		Emit()
	ReportInfo(r, EncCapacityNear, Location{Path: "modules"}, "29 of 31 module ids used").Emit()
	bag.Sort()

	want := "info ENC2002 modules 29 of 31 module ids used\n" +
		"error NAM3003 errors.yaml:3:7 name E_X used twice\n" +
		"note NAM3003 errors.yaml:2:7 first declared here\n" +
		"warning DSC4001 errors.yaml:7:7 empty description"
	if got := FormatShort(bag.Items(), true); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
	if !bag.HasErrors() || !bag.HasWarnings() || bag.Count(SevInfo) != 1 {
		t.Fatalf("unexpected severity counters")
	}

	bag.Filter(SevWarning)
	if bag.Len() != 2 {
		t.Fatalf("Filter left %d items, want 2", bag.Len())
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	bag := NewBag(2)
	loc := Location{File: "a.yaml", Line: 1, Column: 1}
	if !bag.Add(NewError(TaxMalformed, loc, "x")) || !bag.Add(NewError(TaxMalformed, loc, "x")) {
		t.Fatalf("expected first two adds to succeed")
	}
	if bag.Add(NewError(TaxMalformed, loc, "y")) {
		t.Fatalf("expected limit to reject third diagnostic")
	}
	bag.Dedup()
	if bag.Len() != 1 {
		t.Fatalf("Dedup left %d items", bag.Len())
	}
	if NewBag(-1).Cap() != 0 || NewBag(1<<20).Cap() != ^uint16(0) {
		t.Fatalf("unexpected clamping")
	}
}

func TestBagCountsDiagnosticsPastLimit(t *testing.T) {
	bag := NewBag(2)
	loc := Location{File: "a.yaml", Line: 1, Column: 1}
	bag.Add(New(SevWarning, NameInvalidIdentifier, loc, "w1"))
	bag.Add(New(SevWarning, NameInvalidIdentifier, loc, "w2"))
	if bag.Add(NewError(NameDuplicate, loc, "dup")) {
		t.Fatalf("limit must reject the third diagnostic")
	}
	if !bag.HasErrors() {
		t.Fatalf("an error past the limit must still be reported by HasErrors")
	}
	if bag.Count(SevError) != 1 || bag.Count(SevWarning) != 2 || bag.Dropped() != 1 {
		t.Fatalf("counts: errors=%d warnings=%d dropped=%d", bag.Count(SevError), bag.Count(SevWarning), bag.Dropped())
	}
	if bag.Len() != 2 {
		t.Fatalf("stored %d items, want 2", bag.Len())
	}

	merged := NewBag(10)
	merged.Merge(bag)
	if !merged.HasErrors() || merged.Count(SevError) != 1 {
		t.Fatalf("Merge lost dropped counts")
	}

	empty := NewBag(0)
	empty.Add(NewError(TaxMalformed, loc, "x"))
	if !empty.HasErrors() || empty.Len() != 0 {
		t.Fatalf("a zero limit stores nothing but still counts errors")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	loc := Location{Path: "modules.a"}
	for i := 0; i < 3; i++ {
		ReportWarning(r, DescMultiline, loc, "same").Emit()
	}
	ReportWarning(r, DescMultiline, loc, "other").Emit()
	if bag.Len() != 2 {
		t.Fatalf("got %d diagnostics, want 2", bag.Len())
	}
}

func TestCodeIDs(t *testing.T) {
	tests := map[Code]string{
		TaxMalformed:          "TAX1001",
		EncOverflow:           "ENC2001",
		NameInvalidIdentifier: "NAM3001",
		DescMultiline:         "DSC4002",
		UnknownCode:           "E0000",
	}
	for c, want := range tests {
		if c.ID() != want {
			t.Errorf("%d.ID() = %q, want %q", c, c.ID(), want)
		}
	}
	if Code(999).Title() != "Unknown error" {
		t.Errorf("unexpected fallback title")
	}
}
