package handler

import (
	"sync"

	"github.com/hpn/hpn-sampler/internal/domain"
)

// SamplerUsage accumulates calls and tokens for one sampler.
type SamplerUsage struct {
	Calls        int64 `json:"calls"`
	Rejected     int64 `json:"rejected"`
	Failed       int64 `json:"failed"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// TotalTokens returns input plus output tokens.
func (u SamplerUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// UsageTracker counts token usage per sampler since startup.
// It is safe for concurrent use.
type UsageTracker struct {
	mu    sync.RWMutex
	usage map[string]*SamplerUsage
}

// NewUsageTracker creates an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{usage: make(map[string]*SamplerUsage)}
}

// Record adds a finished sample to name's totals.
func (t *UsageTracker) Record(name string, r domain.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.entry(name)
	u.Calls++
	if r.Rejected {
		u.Rejected++
	}
	u.InputTokens += int64(r.InputTokens)
	u.OutputTokens += int64(r.OutputTokens)
}

// RecordFailure counts a sample that ended in an upstream error.
func (t *UsageTracker) RecordFailure(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.entry(name)
	u.Calls++
	u.Failed++
}

func (t *UsageTracker) entry(name string) *SamplerUsage {
	u, ok := t.usage[name]
	if !ok {
		u = &SamplerUsage{}
		t.usage[name] = u
	}
	return u
}

// Get returns name's totals.
func (t *UsageTracker) Get(name string) SamplerUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if u, ok := t.usage[name]; ok {
		return *u
	}
	return SamplerUsage{}
}

// Snapshot returns a copy of all totals.
func (t *UsageTracker) Snapshot() map[string]SamplerUsage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]SamplerUsage, len(t.usage))
	for name, u := range t.usage {
		out[name] = *u
	}
	return out
}

// Reset clears all totals (useful for testing).
func (t *UsageTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage = make(map[string]*SamplerUsage)
}

func sumUsage(snapshot map[string]SamplerUsage) SamplerUsage {
	var total SamplerUsage
	for _, u := range snapshot {
		total.Calls += u.Calls
		total.Rejected += u.Rejected
		total.Failed += u.Failed
		total.InputTokens += u.InputTokens
		total.OutputTokens += u.OutputTokens
	}
	return total
}
