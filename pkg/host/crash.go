package host

import (
	"sync"

	"github.com/bft-labs/appshell/internal/domain"
)

// CrashLatch admits the first crash report of a session and drops the rest.
type CrashLatch struct {
	mu     sync.Mutex
	report *domain.FatalReport
}

// Trip records report if the latch is still open. It reports whether this
// call tripped the latch.
func (l *CrashLatch) Trip(report *domain.FatalReport) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.report != nil {
		return false
	}
	l.report = report
	return true
}

// Tripped returns the admitted report, or nil while the latch is open.
func (l *CrashLatch) Tripped() *domain.FatalReport {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.report
}
