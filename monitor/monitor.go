// Package monitor polls the conversion service health endpoint while a user
// is signed in and publishes an up/down signal.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
	"golang.org/x/time/rate"
)

const (
	// Interval between scheduled probes.
	Interval = 30 * time.Second
	// ProbeTimeout bounds a single health request.
	ProbeTimeout = 10 * time.Second
	// CheckNowInterval is the minimum spacing of manual checks.
	CheckNowInterval = 5 * time.Second
	icmpTimeout      = time.Second
)

// Prober is the health endpoint.
type Prober interface {
	Health(ctx context.Context) error
}

// HintFunc is asked, after a failed probe, whether the host still answers ICMP.
type HintFunc func(host string) bool

// Monitor runs one probe immediately on Start and then every Interval until
// Stop. The signal starts as checking and only reflects the latest probe.
type Monitor struct {
	mu        sync.Mutex
	prober    Prober
	clock     tool.Clock
	host      string
	hint      HintFunc
	signal    types.LivenessSignal
	listeners []func(types.LivenessSignal)

	running bool
	stop    chan struct{}
	done    chan struct{}
	restart chan struct{}
	limiter *rate.Limiter
}

type Options struct {
	Clock tool.Clock
	// Host receives the ICMP hint; empty disables it.
	Host string
	Hint HintFunc
}

func New(prober Prober, opts Options) *Monitor {
	clock := opts.Clock
	if clock == nil {
		clock = tool.SystemClock
	}
	hint := opts.Hint
	if hint == nil {
		hint = func(host string) bool { return tool.QuickICMPProbe(host, icmpTimeout) }
	}
	return &Monitor{
		prober:  prober,
		clock:   clock,
		host:    opts.Host,
		hint:    hint,
		signal:  types.LivenessSignal{State: types.LivenessChecking},
		limiter: rate.NewLimiter(rate.Every(CheckNowInterval), 1),
	}
}

func (m *Monitor) OnChange(fn func(types.LivenessSignal)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Monitor) Signal() types.LivenessSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signal
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Start begins polling. Calling Start on a running monitor does nothing.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.restart = make(chan struct{}, 1)
	ticker := m.clock.NewTicker(Interval)
	stop, done, restart := m.stop, m.done, m.restart
	m.mu.Unlock()

	m.set(types.LivenessSignal{State: types.LivenessChecking, CheckedAt: m.clock.Now()})
	tool.DefaultLogger.Debug("Liveness monitor started")
	go m.loop(ticker, stop, done, restart)
}

func (m *Monitor) loop(ticker tool.Ticker, stop, done, restart chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	m.probe(stop)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			m.probe(stop)
		case <-restart:
			m.probe(stop)
		}
	}
}

// Stop tears the polling loop down and waits for it to exit. It is safe to
// call on a stopped monitor, and a stopped monitor can be started again.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()
	<-done
	m.set(types.LivenessSignal{State: types.LivenessChecking})
	tool.DefaultLogger.Debug("Liveness monitor stopped")
}

// CheckNow schedules an immediate probe. It returns false when the monitor is
// stopped or the previous manual check was less than CheckNowInterval ago.
func (m *Monitor) CheckNow() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || !m.limiter.Allow() {
		return false
	}
	select {
	case m.restart <- struct{}{}:
	default:
	}
	return true
}

func (m *Monitor) probe(stop chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := m.prober.Health(ctx)
	select {
	case <-stop:
		return
	default:
	}
	if err == nil {
		m.set(types.LivenessSignal{State: types.LivenessUp, CheckedAt: m.clock.Now()})
		return
	}
	tool.DefaultLogger.Warnf("Health check failed: %v", err)
	sig := types.LivenessSignal{State: types.LivenessDown, CheckedAt: m.clock.Now(), Detail: "service unreachable"}
	if m.host != "" {
		if m.hint(m.host) {
			sig.Detail = "host reachable, service not responding"
		} else {
			sig.Detail = "host unreachable"
		}
	}
	m.set(sig)
}

func (m *Monitor) set(sig types.LivenessSignal) {
	m.mu.Lock()
	prev := m.signal
	m.signal = sig
	listeners := append([]func(types.LivenessSignal){}, m.listeners...)
	m.mu.Unlock()
	if prev.State != sig.State {
		tool.DefaultLogger.Infof("Backend liveness: %s", sig.State)
	}
	for _, fn := range listeners {
		fn(sig)
	}
}
