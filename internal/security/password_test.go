package security

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "s3cret-pass" {
		t.Fatalf("hash must not be the clear password")
	}

	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("expected match: %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch")
	}
}

func TestHashIsSalted(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")

	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestBurnCompareDoesNotPanic(t *testing.T) {
	BurnCompare("anything")
	BurnCompare("")
}
