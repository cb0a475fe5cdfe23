package marisa

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a snapshot of the activity of one Trie.
type Stats struct {
	Lookups                 uint64
	LookupHits              uint64
	ReverseLookups          uint64
	CommonPrefixSearch      uint64
	PredictiveSearch        uint64
	KeysReturned            uint64
	Builds                  uint64
	Loads                   uint64
	Saves                   uint64
	LastBuildDuration       time.Duration
	LastLoadDuration        time.Duration
	LatencyP50              time.Duration
	LatencyP95              time.Duration
	LatencyP99              time.Duration
	QueriesPerSecond        float64
	OverallQueriesPerSecond float64
}

// StatsCollector counts queries and samples their latency. It is safe for
// concurrent use.
type StatsCollector struct {
	mu sync.Mutex

	lookups    atomic.Uint64
	lookupHits atomic.Uint64
	reverse    atomic.Uint64
	cps        atomic.Uint64
	ps         atomic.Uint64
	returned   atomic.Uint64
	builds     atomic.Uint64
	loads      atomic.Uint64
	saves      atomic.Uint64

	lastBuild atomic.Int64
	lastLoad  atomic.Int64

	latencies    []time.Duration
	maxLatencies int
	next         int

	lastRateCalc time.Time
	lastQueries  uint64
	queryRate    float64
	startTime    time.Time
}

// NewStatsCollector returns a collector that keeps the latest 10000 latency
// samples.
func NewStatsCollector() *StatsCollector {
	now := time.Now()
	return &StatsCollector{
		maxLatencies: 10000,
		latencies:    make([]time.Duration, 0, 1024),
		lastRateCalc: now,
		startTime:    now,
	}
}

func (sc *StatsCollector) recordLookup(hit bool, d time.Duration) {
	sc.lookups.Add(1)
	if hit {
		sc.lookupHits.Add(1)
		sc.returned.Add(1)
	}
	sc.recordLatency(d)
}

func (sc *StatsCollector) recordReverseLookup(d time.Duration) {
	sc.reverse.Add(1)
	sc.returned.Add(1)
	sc.recordLatency(d)
}

func (sc *StatsCollector) recordCommonPrefixSearch() { sc.cps.Add(1) }
func (sc *StatsCollector) recordPredictiveSearch()   { sc.ps.Add(1) }
func (sc *StatsCollector) recordKeys(n int)          { sc.returned.Add(uint64(n)) }

func (sc *StatsCollector) recordBuild(d time.Duration) {
	sc.builds.Add(1)
	sc.lastBuild.Store(int64(d))
}

func (sc *StatsCollector) recordLoad(d time.Duration) {
	sc.loads.Add(1)
	sc.lastLoad.Store(int64(d))
}

func (sc *StatsCollector) recordSave() { sc.saves.Add(1) }

// recordLatency keeps a ring of the most recent samples.
func (sc *StatsCollector) recordLatency(d time.Duration) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if len(sc.latencies) < sc.maxLatencies {
		sc.latencies = append(sc.latencies, d)
		return
	}
	sc.latencies[sc.next] = d
	sc.next = (sc.next + 1) % sc.maxLatencies
}

func (sc *StatsCollector) queries() uint64 {
	return sc.lookups.Load() + sc.reverse.Load() + sc.cps.Load() + sc.ps.Load()
}

// GetStats returns the current statistics.
func (sc *StatsCollector) GetStats() Stats {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.calculateRates()
	p50, p95, p99 := sc.calculatePercentiles()

	elapsed := max(time.Since(sc.startTime).Seconds(), 1)
	return Stats{
		Lookups:                 sc.lookups.Load(),
		LookupHits:              sc.lookupHits.Load(),
		ReverseLookups:          sc.reverse.Load(),
		CommonPrefixSearch:      sc.cps.Load(),
		PredictiveSearch:        sc.ps.Load(),
		KeysReturned:            sc.returned.Load(),
		Builds:                  sc.builds.Load(),
		Loads:                   sc.loads.Load(),
		Saves:                   sc.saves.Load(),
		LastBuildDuration:       time.Duration(sc.lastBuild.Load()),
		LastLoadDuration:        time.Duration(sc.lastLoad.Load()),
		LatencyP50:              p50,
		LatencyP95:              p95,
		LatencyP99:              p99,
		QueriesPerSecond:        sc.queryRate,
		OverallQueriesPerSecond: float64(sc.queries()) / elapsed,
	}
}

// calculateRates updates the query rate since the previous call.
func (sc *StatsCollector) calculateRates() {
	now := time.Now()
	elapsed := max(now.Sub(sc.lastRateCalc).Seconds(), 1)
	cur := sc.queries()
	sc.queryRate = float64(cur-sc.lastQueries) / elapsed
	sc.lastQueries = cur
	sc.lastRateCalc = now
}

func (sc *StatsCollector) calculatePercentiles() (p50, p95, p99 time.Duration) {
	n := len(sc.latencies)
	if n == 0 {
		return
	}
	sorted := slices.Clone(sc.latencies)
	slices.Sort(sorted)
	return sorted[n*50/100], sorted[n*95/100], sorted[n*99/100]
}
