// ABOUTME: TUI update helpers for server
// ABOUTME: Pushes detection statistics and connection counts to the TUI
package server

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil || s.shuttingDown() {
		return
	}

	s.tui.Update(ServerStatus{
		Name:        s.config.Server.Name,
		Port:        s.config.Server.Port,
		Mode:        s.classifier.Mode(),
		Connections: s.connectionCount(),
		Stats:       s.stats.Snapshot(),
	})
}
