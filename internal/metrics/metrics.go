// Package metrics tracks process-lifetime counters for the interview service.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the counters, safe to serialize.
type Snapshot struct {
	SessionsStarted   int64     `json:"sessions_started"`
	SessionsCompleted int64     `json:"sessions_completed"`
	QuestionsAsked    int64     `json:"questions_asked"`
	FollowupsAsked    int64     `json:"followups_asked"`
	OracleCalls       int64     `json:"oracle_calls"`
	OracleFallbacks   int64     `json:"oracle_fallbacks"`
	EvaluationsRun    int64     `json:"evaluations_run"`
	ProfilesAnalyzed  int64     `json:"profiles_analyzed"`
	LastUpdateTime    time.Time `json:"last_update_time"`
}

// Metrics is a mutex-guarded counter set shared across handlers.
type Metrics struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewMetrics() *Metrics {
	return &Metrics{
		snap: Snapshot{LastUpdateTime: time.Now()},
	}
}

func (m *Metrics) IncrementSessionsStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.SessionsStarted++
	m.snap.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementSessionsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.SessionsCompleted++
	m.snap.LastUpdateTime = time.Now()
}

// IncrementQuestionsAsked records an issued question of either type.
func (m *Metrics) IncrementQuestionsAsked(followup bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.QuestionsAsked++
	if followup {
		m.snap.FollowupsAsked++
	}
	m.snap.LastUpdateTime = time.Now()
}

// IncrementOracleCall records a decision request; fellBack marks calls whose
// output was discarded in favor of the fixed fallback.
func (m *Metrics) IncrementOracleCall(fellBack bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.OracleCalls++
	if fellBack {
		m.snap.OracleFallbacks++
	}
	m.snap.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementEvaluationsRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.EvaluationsRun++
	m.snap.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementProfilesAnalyzed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.ProfilesAnalyzed++
	m.snap.LastUpdateTime = time.Now()
}

func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}
