package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Structs

// Env holds information specific to the system where the
// fetcher is deployed. This keeps the account secret out
// of the config file. Use the .env file to populate
// secrets within the system.
type Env struct {
	Secret string
}

// Functions

// LoadEnv looks for an .env file in the directory of the
// fetcher and reads in all defined values.
func LoadEnv() (*Env, error) {

	// Load environment file.
	err := godotenv.Load(".env")
	if err != nil {
		return nil, fmt.Errorf("[config.LoadEnv] Failed to read in .env file with: %s\n", err.Error())
	}

	env := new(Env)

	// Fill variables from .env into struct. Depending on
	// the configured auth method this is the account
	// password or the OAuth bearer token.
	env.Secret = os.Getenv("POP3_SECRET")

	return env, nil
}
