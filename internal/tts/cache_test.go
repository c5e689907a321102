package tts

import (
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey("hello", "thalia", "en")
	if len(k) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(k))
	}
	if k != CacheKey("hello", "thalia", "en") {
		t.Error("key should be stable")
	}

	others := []string{
		CacheKey("hello", "zeus", "en"),
		CacheKey("hello", "thalia", "en-US"),
		CacheKey("hello!", "thalia", "en"),
		// The separator keeps field boundaries apart.
		CacheKey("hellothalia", "", "en"),
	}
	for _, o := range others {
		if o == k {
			t.Errorf("key collision: %s", o)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello..."},
		{"runes", "héllo wörld", 7, "héllo w..."},
		{"no limit", "hello", 0, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestSpeechCache_Eviction(t *testing.T) {
	c := NewSpeechCache(2, 0)
	c.Add("a", Artifact{Audio: []byte("a")})
	c.Add("b", Artifact{Audio: []byte("b")})

	// Touch "a" so "b" is the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Add("c", Artifact{Audio: []byte("c")})

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
}

func TestSpeechCache_TTL(t *testing.T) {
	c := NewSpeechCache(10, 20*time.Millisecond)
	c.Add("k", Artifact{Audio: []byte("x")})
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should be present before expiry")
	}

	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
}

func TestArtifact(t *testing.T) {
	a := Artifact{Audio: []byte("ID3")}
	if got, want := a.DataURI(), "data:audio/mpeg;base64,SUQz"; got != want {
		t.Errorf("DataURI = %q, want %q", got, want)
	}
	html := a.HTMLPlayer()
	if !strings.HasPrefix(html, `<audio controls preload="auto" src="data:audio/mpeg;base64,`) || !strings.HasSuffix(html, `"></audio>`) {
		t.Errorf("HTMLPlayer = %q", html)
	}
}
