package document

import "testing"

func TestNew_Valid(t *testing.T) {
	doc, err := New("7", "Four score", "Gettysburg Address. November 19, 1863", "A dedication",
		[]string{"union"}, []float32{0.1, 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "7" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Body() != "Four score" {
		t.Errorf("Body() = %q", doc.Body())
	}
	if doc.Source() != "Gettysburg Address. November 19, 1863" {
		t.Errorf("Source() = %q", doc.Source())
	}
	if doc.Summary() != "A dedication" {
		t.Errorf("Summary() = %q", doc.Summary())
	}
	if len(doc.Keywords()) != 1 || doc.Keywords()[0] != "union" {
		t.Errorf("Keywords() = %v", doc.Keywords())
	}
	if len(doc.Embedding()) != 2 {
		t.Errorf("Embedding() len = %d", len(doc.Embedding()))
	}
}

func TestNew_StripsIDPrefix(t *testing.T) {
	doc, err := New("Text #: 42", "", "src", "", nil, []float32{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "42" {
		t.Errorf("ID() = %q, want 42", doc.ID())
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		id   string
		emb  []float32
	}{
		{"empty id", "", []float32{1}},
		{"prefix only", "Text #: ", []float32{1}},
		{"no embedding", "1", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.id, "body", "src", "sum", nil, tc.emb); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_ClonesInputs(t *testing.T) {
	kw := []string{"liberty"}
	emb := []float32{0.5, 0.5}

	doc, _ := New("1", "b", "s", "", kw, emb)

	kw[0] = "mutated"
	emb[0] = 9

	if doc.Keywords()[0] != "liberty" {
		t.Error("keywords mutation leaked into document")
	}
	if doc.Embedding()[0] != 0.5 {
		t.Error("embedding mutation leaked into document")
	}
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"Text #: 12":  "12",
		" Text ID: 3": "3",
		"  9 ":        "9",
		"abc":         "abc",
	}
	for in, want := range tests {
		if got := NormalizeID(in); got != want {
			t.Errorf("NormalizeID(%q) = %q, want %q", in, got, want)
		}
	}
}
