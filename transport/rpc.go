package transport

// RegisterWrite and RegisterRead let package client install a
// pending-table entry before sending a request, per spec §4.E's
// ordering ("Register a Promise ... Post a receive ... Send the
// request"). Along with DiscardWrite/DiscardRead below, they are the
// only pending-table operations exposed outside this package;
// completion still happens exclusively through the completion-worker
// pool.
func (m *Manager) RegisterWrite(id uint64) chan WriteOutcome {
	return m.registerWrite(id)
}

func (m *Manager) RegisterRead(id uint64) chan ReadOutcome {
	return m.registerRead(id)
}

// DiscardWrite and DiscardRead undo a RegisterWrite/RegisterRead call
// whose request never actually made it onto the wire, so a Send
// failure doesn't leak a pending-table slot until Shutdown.
func (m *Manager) DiscardWrite(id uint64) {
	m.discardWrite(id)
}

func (m *Manager) DiscardRead(id uint64) {
	m.discardRead(id)
}

// Manager returns the transport manager this client endpoint was
// created from, so package client can allocate request ids and
// register pending-table entries against the same manager that will
// resolve them.
func (c *ClientConn) Manager() *Manager {
	return c.mgr
}
