package manager

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/devices"
	"github.com/nerrad567/enodebd/internal/enodeb"
	"github.com/nerrad567/enodebd/internal/fleet"
	"github.com/nerrad567/enodebd/internal/infrastructure/config"
	"github.com/nerrad567/enodebd/internal/infrastructure/logging"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
	"github.com/nerrad567/enodebd/internal/trace"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) sm.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fire runs the newest live timer.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	var live *fakeTimer
	for i := len(c.timers) - 1; i >= 0; i-- {
		if !c.timers[i].stopped {
			live = c.timers[i]
			break
		}
	}
	c.mu.Unlock()
	if live == nil {
		t.Fatal("no live timer")
	}
	live.stopped = true
	live.f()
}

type fakeStore struct {
	mu          sync.Mutex
	records     map[string]enodeb.Record
	transitions []enodeb.Transition
}

func (s *fakeStore) Upsert(_ context.Context, rec *enodeb.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]enodeb.Record)
	}
	s.records[rec.Serial] = *rec
	return nil
}

// RecordTransition refuses serials without a record, as the foreign key does.
func (s *fakeStore) RecordTransition(_ context.Context, t *enodeb.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[t.Serial]; !ok {
		return fmt.Errorf("no record for %s", t.Serial)
	}
	s.transitions = append(s.transitions, *t)
	return nil
}

func (s *fakeStore) record(serial string) (enodeb.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[serial]
	return r, ok
}

func (s *fakeStore) hops() [][2]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][2]string, len(s.transitions))
	for i, t := range s.transitions {
		out[i] = [2]string{t.From, t.To}
	}
	return out
}

type published struct {
	topic    string
	payload  any
	retained bool
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *fakePublisher) PublishJSON(topic string, v any, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, v, retained})
	return nil
}

func (p *fakePublisher) topics() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool)
	for _, m := range p.msgs {
		out[m.topic] = m.retained
	}
	return out
}

type fakeMetrics struct {
	mu          sync.Mutex
	transitions int
	faults      []string
	anomalies   []string
	reboots     []string
	fleet       [3]int
}

func (m *fakeMetrics) WriteTransition(_, _, _, _ string, _ time.Time) {
	m.mu.Lock()
	m.transitions++
	m.mu.Unlock()
}

func (m *fakeMetrics) WriteFault(_, _, state, _ string, _ time.Time) {
	m.mu.Lock()
	m.faults = append(m.faults, state)
	m.mu.Unlock()
}

func (m *fakeMetrics) WriteCountAnomaly(_, _, family string, reported, counted int, _ time.Time) {
	m.mu.Lock()
	m.anomalies = append(m.anomalies, fmt.Sprintf("%s:%d/%d", family, reported, counted))
	m.mu.Unlock()
}

func (m *fakeMetrics) WriteReboot(_, _, phase string, _ time.Time) {
	m.mu.Lock()
	m.reboots = append(m.reboots, phase)
	m.mu.Unlock()
}

func (m *fakeMetrics) WriteFleet(total, inSync, faulted int, _ time.Time) {
	m.mu.Lock()
	m.fleet = [3]int{total, inSync, faulted}
	m.mu.Unlock()
}

type fakeHub struct {
	mu       sync.Mutex
	channels []string
}

func (h *fakeHub) Broadcast(channel string, _ any) {
	h.mu.Lock()
	h.channels = append(h.channels, channel)
	h.mu.Unlock()
}

type fakeTracer struct {
	mu       sync.Mutex
	records  []trace.Record
	released []string
}

func (t *fakeTracer) Write(rec trace.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, rec)
	return nil
}

func (t *fakeTracer) Release(serial string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released = append(t.released, serial)
	return nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *fakeAuditor) Create(_ context.Context, e *audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *e)
	return nil
}

type harness struct {
	*Manager
	clock   *fakeClock
	store   *fakeStore
	pub     *fakePublisher
	metrics *fakeMetrics
	hub     *fakeHub
	tracer  *fakeTracer
	audit   *fakeAuditor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc, err := fleet.Parse([]byte("defaults:\n  parameters:\n    TAC: 1\n"))
	if err != nil {
		t.Fatalf("fleet.Parse() error = %v", err)
	}

	h := &harness{
		clock:   &fakeClock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)},
		store:   &fakeStore{},
		pub:     &fakePublisher{},
		metrics: &fakeMetrics{},
		hub:     &fakeHub{},
		tracer:  &fakeTracer{},
		audit:   &fakeAuditor{},
	}
	logger := logging.NewWithWriter(config.LoggingConfig{Level: "debug"}, "test", io.Discard)
	m, err := New(Deps{
		Profiles:     devices.Default(),
		Settings:     fc,
		Timers:       sm.DefaultTimers(),
		Clock:        h.clock,
		Logger:       logger,
		Store:        h.store,
		Publisher:    h.pub,
		Metrics:      h.metrics,
		Hub:          h.hub,
		Tracer:       h.tracer,
		Audit:        h.audit,
		IdleEviction: time.Hour,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.Manager = m
	return h
}
