package dashboard

// ServerConfig contains configuration for the dashboard server.
type ServerConfig struct {
	Addr      string // Address to bind the dashboard server
	AuthToken string // Access token for the JSON API, empty disables auth
}
