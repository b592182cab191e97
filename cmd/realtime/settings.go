package main

type Settings struct {
	EndpointURL          string `env:"ENDPOINT_URL,default=wss://api.sentra.app/realtime"`
	BackendURL           string `env:"BACKEND_URL,default=https://api.sentra.app/api"`
	AuthToken            string `env:"AUTH_TOKEN,required=true"`
	SessionId            string `env:"SESSION_ID"`
	HeartbeatSeconds     int    `env:"HEARTBEAT_SECONDS,default=25"`
	ReconnectSeconds     int    `env:"RECONNECT_SECONDS,default=3"`
	MaxReconnectAttempts int    `env:"MAX_RECONNECT_ATTEMPTS,default=10"`
	LogEncoding          string `env:"LOG_ENCODING,default=console"`
}
