package sample

import "testing"

func TestDeterministicWithSameSeed(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 20; i++ {
		if a.Contact() != b.Contact() {
			t.Fatal("contacts diverged for identical seeds")
		}
		if a.MessageText() != b.MessageText() {
			t.Fatal("message templates diverged for identical seeds")
		}
		if a.Recipe() != b.Recipe() {
			t.Fatal("recipes diverged for identical seeds")
		}
	}
}

func TestIntBetweenBounds(t *testing.T) {
	p := New(1)
	for i := 0; i < 1000; i++ {
		v := p.IntBetween(100, 10000)
		if v < 100 || v > 10000 {
			t.Fatalf("value %d out of range", v)
		}
	}
}

func TestActivityDistanceByCategory(t *testing.T) {
	p := New(7)
	for i := 0; i < 100; i++ {
		d := p.ActivityDistance("Swimming")
		if d < 100 || d > 3000 {
			t.Fatalf("swimming distance %f out of range", d)
		}
	}
}

func TestHexIDFormat(t *testing.T) {
	p := New(3)
	id := p.HexID()
	if len(id) != 32 {
		t.Fatalf("expected 32 chars, got %d", len(id))
	}
	for _, c := range id {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			t.Fatalf("unexpected character %q", c)
		}
	}
}

func TestJoplinNoteFallback(t *testing.T) {
	p := New(5)
	n := p.JoplinNote("NoSuchCategory")
	if n.Title == "" || n.Body == "" {
		t.Fatal("fallback note should have a title and body")
	}
}
