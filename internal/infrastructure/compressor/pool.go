package compressor

import (
	"sync"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

// Pool reuses reranker clients across requests that carry identical settings,
// so the breaker state and connection pool survive between calls. Entries are
// immutable once constructed; the setting value itself is the cache key.
type Pool struct {
	executor *resilience.Executor

	mu      sync.Mutex
	clients map[domain.BloomzRerankSetting]*Reranker
}

func NewPool(executor *resilience.Executor) *Pool {
	return &Pool{
		executor: executor,
		clients:  make(map[domain.BloomzRerankSetting]*Reranker),
	}
}

func (p *Pool) Get(setting domain.BloomzRerankSetting) *Reranker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[setting]; ok {
		return client
	}
	client := NewReranker(setting, p.executor)
	p.clients[setting] = client
	return client
}
