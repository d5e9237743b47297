// internal/workers/inventory/lookup-items/config.go
package lookupitems

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultLimit: 5,
		MaxLimit:     25,
	}
}
