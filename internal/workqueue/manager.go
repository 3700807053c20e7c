package workqueue

import (
	"sort"
	"sync"
	"time"

	pebblestore "github.com/nkasozi/reconciler-backend/internal/storage/pebble"
)

// Manager opens queues lazily by name and shares one sweeper setting.
type Manager struct {
	db        *pebblestore.DB
	namespace string
	opts      Options

	mu         sync.Mutex
	queues     map[string]*WorkQueue
	sweepEvery time.Duration
}

// NewManager returns a Manager for queues under namespace.
func NewManager(db *pebblestore.DB, namespace string, opts Options) *Manager {
	return &Manager{db: db, namespace: namespace, opts: opts, queues: make(map[string]*WorkQueue)}
}

// Queue returns the named queue, opening it on first use.
func (m *Manager) Queue(name string) (*WorkQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[name]; ok {
		return q, nil
	}
	q, err := OpenQueue(m.db, m.namespace, name, m.opts)
	if err != nil {
		return nil, err
	}
	if m.sweepEvery > 0 {
		q.StartSweeper(m.sweepEvery, 0)
	}
	m.queues[name] = q
	return q, nil
}

// Names lists opened queues in sorted order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.queues))
	for n := range m.queues {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StartSweepers runs a lease sweeper on every current and future queue.
func (m *Manager) StartSweepers(every time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepEvery = every
	for _, q := range m.queues {
		q.StartSweeper(every, 0)
	}
}

// Close stops all sweepers. The pebble DB is owned by the caller.
func (m *Manager) Close() {
	m.mu.Lock()
	queues := make([]*WorkQueue, 0, len(m.queues))
	for _, q := range m.queues {
		queues = append(queues, q)
	}
	m.sweepEvery = 0
	m.mu.Unlock()
	for _, q := range queues {
		q.StopSweeper()
	}
}
