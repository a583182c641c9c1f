package password

import "testing"

func TestHashVerifyRoundTrip(t *testing.T) {
	h := NewHasher(Config{Memory: 8 * 1024, Time: 1, Parallelism: 1})

	encoded, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := h.Verify(encoded, "correct horse battery staple")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected matching password to verify")
	}

	ok, err = h.Verify(encoded, "wrong password")
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatching password to fail")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := NewHasher(Config{Memory: 8 * 1024, Time: 1, Parallelism: 1})

	first, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("identical passwords must hash to distinct strings")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := NewHasher(Config{})

	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$notbase64!!$x",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
	} {
		if _, err := h.Verify(bad, "pw"); err == nil {
			t.Fatalf("expected error for malformed hash %q", bad)
		}
	}
}
