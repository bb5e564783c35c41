package security

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Segura123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Segura123!" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword("Segura123!", hash) {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword("Segura123?", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("Segura123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("Segura123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestVerifyPasswordGarbageHash(t *testing.T) {
	if VerifyPassword("Segura123!", "not-a-bcrypt-hash") {
		t.Fatal("garbage hash accepted")
	}
}
