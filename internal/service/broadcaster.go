package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToAdmin(sessionID string, msgType string, payload interface{})
	BroadcastToTeam(sessionID, teamID string, msgType string, payload interface{})
	BroadcastToAllTeams(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}
