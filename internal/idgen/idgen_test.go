package idgen

import (
	"regexp"
	"testing"
)

func TestInt64Unique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id, err := Int64()
		if err != nil {
			t.Fatalf("Int64: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

func TestTokenURLSafe(t *testing.T) {
	re := regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)
	for i := 0; i < 10; i++ {
		tok := Token()
		if !re.MatchString(tok) {
			t.Errorf("token %q is not URL-safe", tok)
		}
	}
}
