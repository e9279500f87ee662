package repo

import (
	"context"
	"sort"
	"sync"
)

// NewMemory is an in-memory Client used by tests and local runs
// without a database.
func NewMemory() Client {
	return &memoryClient{
		indices:     map[string]IndexPoint{},
		alerts:      map[string]Alert{},
		subscribers: map[int64]Subscriber{},
	}
}

type memoryClient struct {
	mu          sync.RWMutex
	indices     map[string]IndexPoint
	alerts      map[string]Alert
	subscribers map[int64]Subscriber
}

func (m *memoryClient) Indices() Indices         { return (*memIndices)(m) }
func (m *memoryClient) Alerts() Alerts           { return (*memAlerts)(m) }
func (m *memoryClient) Subscribers() Subscribers { return (*memSubscribers)(m) }

func (m *memoryClient) Close(ctx context.Context) error { return nil }

type memIndices memoryClient

func (m *memIndices) Upsert(ctx context.Context, p IndexPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices[p.Date] = p
	return nil
}

func (m *memIndices) Window(ctx context.Context, n int) ([]IndexPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	points := make([]IndexPoint, 0, len(m.indices))
	for _, p := range m.indices {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	if n > 0 && len(points) > n {
		points = points[len(points)-n:]
	}

	return points, nil
}

type memAlerts memoryClient

func (m *memAlerts) Upsert(ctx context.Context, a Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.Date] = a
	return nil
}

func (m *memAlerts) Recent(ctx context.Context, n int) ([]Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Date > alerts[j].Date })

	if n > 0 && len(alerts) > n {
		alerts = alerts[:n]
	}

	return alerts, nil
}

type memSubscribers memoryClient

func (m *memSubscribers) Upsert(ctx context.Context, s Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[s.ChatID] = s
	return nil
}

func (m *memSubscribers) Delete(ctx context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.subscribers[chatID]
	delete(m.subscribers, chatID)
	return ok, nil
}

func (m *memSubscribers) All(ctx context.Context) ([]Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := make([]Subscriber, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ChatID < subs[j].ChatID })

	return subs, nil
}
