// internal/workers/matching/find-matches/config.go
package findmatches

import "time"

type Config struct {
	Timeout        time.Duration
	ResultCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		ResultCacheTTL: time.Minute,
	}
}
