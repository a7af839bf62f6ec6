package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Structs

// Config holds all information parsed from
// supplied config file.
type Config struct {
	Server         Server
	Auth           Auth
	Maildir        Maildir
	PrometheusAddr string
}

// Server describes the POP3 server to connect to and
// the transport parameters of that connection.
type Server struct {
	Host               string
	Port               string
	UseTLS             bool
	RootCertLoc        string
	InsecureSkipVerify bool
	TimeoutSec         int
}

// Auth selects the authentication variant and carries
// the user name. The secret is never part of the config
// file, it comes from the environment, see env.go.
type Auth struct {
	Method string
	User   string
}

// Maildir describes where fetched messages are delivered
// to and how they are fetched.
type Maildir struct {
	Loc              string
	HeadersOnly      bool
	DeleteAfterFetch bool
}

// Functions

// LoadConfig takes in the path to the TOML config file
// of the fetcher, reads and validates it and returns the
// parsed structure.
func LoadConfig(configFile string) (*Config, error) {

	conf := new(Config)

	// Parse values from TOML file into struct.
	if _, err := toml.DecodeFile(configFile, conf); err != nil {
		return nil, fmt.Errorf("failed to read in TOML config file at '%s' with: %v", configFile, err)
	}

	if conf.Server.Host == "" {
		return nil, fmt.Errorf("config misses a server host to connect to")
	}

	// Fall back to the protocol's well-known ports if
	// none was configured.
	if conf.Server.Port == "" {

		conf.Server.Port = "110"
		if conf.Server.UseTLS {
			conf.Server.Port = "995"
		}
	}

	if conf.Auth.User == "" {
		return nil, fmt.Errorf("config misses the user name to authenticate as")
	}

	// Default to the challenge-response variant so that
	// plain text credentials require an explicit choice.
	if conf.Auth.Method == "" {
		conf.Auth.Method = "CRAM-MD5"
	}

	switch strings.ToUpper(conf.Auth.Method) {
	case "LOGIN", "CRAM-MD5", "XOAUTH2":
		conf.Auth.Method = strings.ToUpper(conf.Auth.Method)
	default:
		return nil, fmt.Errorf("config contains unknown auth method '%s'", conf.Auth.Method)
	}

	if conf.Maildir.Loc == "" {
		return nil, fmt.Errorf("config misses the maildir location to deliver into")
	}

	return conf, nil
}
