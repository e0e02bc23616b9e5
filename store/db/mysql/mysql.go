package mysql

import (
	"database/sql"

	"github.com/pkg/errors"

	// Import the mysql driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/fruitbox12/zik.sh/server/profile"
	"github.com/fruitbox12/zik.sh/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a connection to the MySQL instance named by profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	db, err := sql.Open("mysql", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open mysql db %s", profile.DSN)
	}
	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}
