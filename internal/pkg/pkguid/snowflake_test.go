package pkguid

import "testing"

func TestGenerateRandomNodeIDRange(t *testing.T) {
	id, err := generateRandomNodeID()
	if err != nil {
		t.Fatalf("generateRandomNodeID: %v", err)
	}
	if id < 0 || id > maxNodeID {
		t.Fatalf("expected id within 0..%d, got %d", maxNodeID, id)
	}
}

func TestSnowflakeGenerateUnique(t *testing.T) {
	gen, err := NewSnowflake(-1)
	if err != nil {
		t.Fatalf("NewSnowflake: %v", err)
	}
	id1 := gen.Generate()
	id2 := gen.Generate()
	if id1 == id2 {
		t.Fatalf("expected unique ids, got %d and %d", id1, id2)
	}
	if id2 < id1 {
		t.Fatalf("expected increasing ids, got %d then %d", id1, id2)
	}
}

func TestSnowflakeFixedNode(t *testing.T) {
	gen, err := NewSnowflake(7)
	if err != nil {
		t.Fatalf("NewSnowflake: %v", err)
	}
	if s := gen.GenerateString(); s == "" || s == "0" {
		t.Fatalf("unexpected string id %q", s)
	}
}
