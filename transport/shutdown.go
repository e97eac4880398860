package transport

import "sync"

// Shutdown stops accepting new work and tears the manager down (spec
// §4.C): the listener and every tracked connection are closed, every
// still-pending write resolves as cancelled and every still-pending
// read resolves as absent, and the completion workers are stopped.
// Idempotent — a second call is a no-op.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return
	}
	m.shuttingDown = true

	ln := m.listener
	m.listener = nil

	serverConns := m.serverConns
	m.serverConns = nil

	clientConns := m.clientConns
	m.clientConns = nil
	m.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	for _, c := range serverConns {
		c.Close()
	}

	var wg sync.WaitGroup
	for _, cc := range clientConns {
		wg.Add(1)
		go func(cc *ClientConn) {
			defer wg.Done()
			cc.Close()
		}(cc)
	}
	wg.Wait()

	m.pendingWrite.Range(func(id uint64, ch chan WriteOutcome) bool {
		ch <- cancelledWriteOutcome()
		m.pendingWrite.Delete(id)
		return true
	})
	m.pendingRead.Range(func(id uint64, ch chan ReadOutcome) bool {
		ch <- absentReadOutcome()
		m.pendingRead.Delete(id)
		return true
	})

	m.metrics.SetPendingCount(0)

	close(m.stopWorkers)
	m.workersWG.Wait()
}
