// Package profile holds the runtime configuration of the zik server and client.
package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the runtime configuration, resolved from flags and ZIK_* envs.
type Profile struct {
	// Mode is "prod" or "dev".
	Mode string
	// Addr is the binding address of the HTTP API.
	Addr string
	// Port is the binding port of the HTTP API.
	Port int
	// Data is the directory holding local state (sqlite file, .env).
	Data string
	// Driver is the storage backend: "sqlite", "mysql" or "postgres".
	Driver string
	// DSN is the data source name; defaults to a sqlite file under Data.
	DSN string
	// AutoExecute enables one-shot execution of directive blocks embedded in
	// assistant messages.
	AutoExecute bool
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// GetProfile resolves the profile from viper. Flags are expected to be bound
// by the caller; ZIK_* environment variables override nothing that was set
// explicitly on the command line.
func GetProfile() (*Profile, error) {
	profile := &Profile{}
	if err := viper.Unmarshal(profile); err != nil {
		return nil, errors.Wrap(err, "unmarshal profile")
	}

	if profile.Mode != "dev" && profile.Mode != "prod" {
		profile.Mode = "dev"
	}
	if profile.Data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve home dir")
		}
		profile.Data = filepath.Join(home, ".zik")
	}
	if err := os.MkdirAll(profile.Data, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", profile.Data)
	}
	if profile.Driver == "" {
		profile.Driver = "sqlite"
	}
	if profile.DSN == "" {
		if profile.Driver != "sqlite" {
			return nil, errors.Errorf("dsn required for driver %q", profile.Driver)
		}
		profile.DSN = filepath.Join(profile.Data, "zik_"+profile.Mode+".db")
	}
	return profile, nil
}

func init() {
	viper.SetEnvPrefix("zik")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
