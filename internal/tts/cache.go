package tts

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheSize bounds the number of stored artifacts.
const DefaultCacheSize = 256

// SpeechCache maps (text, voice, language) to synthesized audio. It is
// safe for concurrent use.
type SpeechCache struct {
	lru *expirable.LRU[string, Artifact]
}

// NewSpeechCache creates a cache holding at most size artifacts. A ttl of
// zero keeps entries until they are evicted by size.
func NewSpeechCache(size int, ttl time.Duration) *SpeechCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &SpeechCache{lru: expirable.NewLRU[string, Artifact](size, nil, ttl)}
}

// Get returns the artifact stored under key.
func (c *SpeechCache) Get(key string) (Artifact, bool) {
	return c.lru.Get(key)
}

// Add stores a under key, evicting the least recently used entry when full.
func (c *SpeechCache) Add(key string, a Artifact) {
	c.lru.Add(key, a)
}

// Len returns the number of cached artifacts.
func (c *SpeechCache) Len() int {
	return c.lru.Len()
}

// CacheKey derives the cache key from the exact text sent for synthesis
// plus voice and language.
func CacheKey(text, voice, language string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + voice + "\x00" + language))
	return hex.EncodeToString(sum[:])
}

// Truncate shortens text to at most max runes, appending "..." when cut.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
