package config

import "time"

type ClientConfig struct {
	Host      string
	Username  string
	Password  string // digest auth
	UseTLS    bool
	VerifyTLS bool // Ignored if UseTLS is false
	Timeout   time.Duration
}
