// Package db selects the storage driver named by the profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
	"github.com/fruitbox12/zik.sh/store/db/mysql"
	"github.com/fruitbox12/zik.sh/store/db/postgres"
	"github.com/fruitbox12/zik.sh/store/db/sqlite"
)

// NewDriver creates a storage driver based on the profile.
func NewDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "mysql":
		return mysql.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown storage driver %q", profile.Driver)
	}
}
