package checksum

import "testing"

func TestMatch(t *testing.T) {
	data := []byte("---\ntitle: Intake\n---\n")
	sum := Sum(data)

	for _, h := range []string{sum, `"` + sum + `"`, ETag(data), "W/" + ETag(data), sum[:32], "*"} {
		if !Match(h, data) {
			t.Errorf("Match(%q) = false", h)
		}
	}
	for _, h := range []string{"", `"deadbeef"`, sum[:31], Sum([]byte("other"))} {
		if Match(h, data) {
			t.Errorf("Match(%q) = true", h)
		}
	}
}

func TestTag(t *testing.T) {
	data := []byte("body")
	if Tag(Sum(data)) != ETag(data) {
		t.Fatal("Tag and ETag disagree")
	}
	if got := Tag("abc"); got != `"abc"` {
		t.Fatalf("Tag(short) = %s", got)
	}
}
