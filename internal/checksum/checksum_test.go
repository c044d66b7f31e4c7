package checksum

import "testing"

func TestSumIgnoresEncodingNoise(t *testing.T) {
	base := Sum([]byte("- hungarian: ige\n  korean: 말씀\n"))

	variants := []string{
		"- hungarian: ige\r\n  korean: 말씀\r\n",
		"\xEF\xBB\xBF- hungarian: ige\n  korean: 말씀\n",
		"- hungarian: ige\n  korean: 말씀\n\n\n",
	}
	for _, v := range variants {
		if got := Sum([]byte(v)); got != base {
			t.Errorf("Sum(%q) differs from base", v)
		}
	}
}

func TestSumDetectsChanges(t *testing.T) {
	a := Sum([]byte("- hungarian: ige\n"))
	b := Sum([]byte("- hungarian: hit\n"))
	if a == b {
		t.Fatal("different content must produce different sums")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(a))
	}
}
