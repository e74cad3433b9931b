package extract

import (
	"errors"
	"sync"
	"time"
)

// ErrKeysExhausted means every configured API key is currently rate
// limited. Callers should surface a retry-later message, not fail hard.
var ErrKeysExhausted = errors.New("all extraction API keys exhausted")

// KeyPool rotates Gemini API keys round-robin and benches keys that hit
// their quota so a single exhausted key does not take the feature down.
type KeyPool struct {
	mu      sync.Mutex
	keys    []string
	next    int
	benched map[string]time.Time
	cooloff time.Duration
	now     func() time.Time
}

func NewKeyPool(keys []string, cooloff time.Duration) *KeyPool {
	return &KeyPool{
		keys:    keys,
		benched: make(map[string]time.Time),
		cooloff: cooloff,
		now:     time.Now,
	}
}

// Next returns the next usable key. It walks the ring at most once; when
// every key is benched it returns ErrKeysExhausted.
func (p *KeyPool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < len(p.keys); i++ {
		key := p.keys[p.next]
		p.next = (p.next + 1) % len(p.keys)
		if until, ok := p.benched[key]; ok {
			if p.now().Before(until) {
				continue
			}
			delete(p.benched, key)
		}
		return key, nil
	}
	return "", ErrKeysExhausted
}

// MarkExhausted benches a key for the cooloff window.
func (p *KeyPool) MarkExhausted(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.benched[key] = p.now().Add(p.cooloff)
}

func (p *KeyPool) Len() int { return len(p.keys) }
