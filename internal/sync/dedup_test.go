package sync

import "testing"

func rec(ordinal int, id *int64, typ string) Record {
	return Record{Ordinal: ordinal, ID: id, Values: []any{typ, "High", "Open", (*string)(nil), (*string)(nil)}}
}

func TestDeduplicateByIDLastWins(t *testing.T) {
	in := []Record{
		rec(0, idPtr(7), "first"),
		rec(1, idPtr(3), "other"),
		rec(2, nil, "anon"),
		rec(3, idPtr(7), "last"),
		rec(4, nil, "anon"),
	}
	out := Deduplicate(in)
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	if *out[0].ID != 7 || out[0].Values[0] != "last" {
		t.Errorf("slot 0 = %v %v, want id 7 with last values", *out[0].ID, out[0].Values[0])
	}
	if out[1].ID == nil || *out[1].ID != 3 {
		t.Errorf("slot 1 should keep id 3")
	}
	if out[2].ID != nil || out[3].ID != nil {
		t.Errorf("null-id records must pass through")
	}
}

func TestDeduplicateStructural(t *testing.T) {
	a := rec(0, nil, "dup")
	b := rec(1, nil, "dup")
	c := rec(2, nil, "unique")
	d := rec(3, nil, "dup")
	d.Values[3] = strPtr("2024-01-01")

	out := Deduplicate([]Record{a, b, c, d})
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0].Ordinal != 0 || out[1].Ordinal != 2 || out[2].Ordinal != 3 {
		t.Errorf("kept ordinals = %d %d %d, want 0 2 3", out[0].Ordinal, out[1].Ordinal, out[2].Ordinal)
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	if out := Deduplicate(nil); len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}
