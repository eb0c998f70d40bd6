package multidb

import (
	"io"

	"github.com/jmoiron/sqlx"
)

type MultiDB interface {
	GetSqlx(driver Driver, key string) (*sqlx.DB, error)
	DSN(key string) (driver Driver, dsn string, err error)
	io.Closer
}
