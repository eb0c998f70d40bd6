package container

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"

	"github.com/komponen/marketplace/config"
	"github.com/komponen/marketplace/internal/svc/apprepo"
	"github.com/komponen/marketplace/internal/svc/iconsvc"
	"github.com/komponen/marketplace/internal/svc/inviterepo"
	"github.com/komponen/marketplace/internal/svc/vendorrepo"
	"github.com/komponen/marketplace/pkg/multidb"
	"github.com/komponen/marketplace/pkg/validator"
)

// Repositories is an abstraction layer to list down all repositories.
// This only will connect and save the repository.
// To use this, you must select the db label based on config file
type Repositories interface {
	io.Closer

	AppRepo(dbLabel string) (apprepo.Repo, error)
	VendorRepo(dbLabel string) (vendorrepo.Repo, error)
	InviteRepo(dbLabel string) (inviterepo.Repo, error)

	// AppRepoOpener hands out an opener that binds each call to a
	// dedicated short-lived connection instead of the shared pool.
	AppRepoOpener(dbLabel string) (iconsvc.RepoOpener, error)
}

// RepositoryImpl the real implementation of Repositories
type RepositoryImpl struct {
	dbResourceMap config.DatabaseResources `validate:"required,structonly"`
	dbSqlConn     multidb.MultiDB          `validate:"required"` // all database connection
}

// Ensure that RepositoryImpl implements RepositoryImpl
var _ Repositories = (*RepositoryImpl)(nil)

// SetupRepositories return pointer because it heavily used.
// This will initialize all required dependencies to run.
// This will return RepositoryImpl instead Repositories,
// the reason is when SetupRepositories called it must be close in deferred mode, any passed value using interface
// won't let user Close any dependencies during run-time.
func SetupRepositories(conf config.DatabaseResources) (*RepositoryImpl, error) {
	sqlDbConfig := multidb.DatabaseResources{}
	for name, conn := range conf {
		sqlDbConfig[name] = multidb.DatabaseResource{
			Disable:  conn.Disable,
			Driver:   multidb.Driver(conn.Driver),
			Postgres: multidb.GoSqlDb(conn.Postgres),
		}
	}

	dbSqlConn, err := multidb.NewSqlDbConnMaker(multidb.SqlDbConnMakerConfig{Config: sqlDbConfig})
	if err != nil {
		return nil, err
	}

	dep := &RepositoryImpl{
		dbResourceMap: conf,
		dbSqlConn:     dbSqlConn,
	}

	err = validator.Validate(dep)
	if err != nil {
		return nil, err
	}

	return dep, nil
}

// AppRepo return apprepo.Repo and return error when connection is closed or nil.
// This should never have caused panic.
func (r *RepositoryImpl) AppRepo(dbLabel string) (appRepo apprepo.Repo, err error) {
	sqlConn, err := r.sqlxConn("appRepo", dbLabel)
	if err != nil {
		return
	}

	return apprepo.Postgres(apprepo.RepoPostgresConfig{
		Connection: sqlConn,
	})
}

func (r *RepositoryImpl) VendorRepo(dbLabel string) (vendorRepo vendorrepo.Repo, err error) {
	sqlConn, err := r.sqlxConn("vendorRepo", dbLabel)
	if err != nil {
		return
	}

	return vendorrepo.Postgres(vendorrepo.RepoPostgresConfig{
		Connection: sqlConn,
	})
}

func (r *RepositoryImpl) InviteRepo(dbLabel string) (inviteRepo inviterepo.Repo, err error) {
	sqlConn, err := r.sqlxConn("inviteRepo", dbLabel)
	if err != nil {
		return
	}

	return inviterepo.Postgres(inviterepo.RepoPostgresConfig{
		Connection: sqlConn,
	})
}

func (r *RepositoryImpl) AppRepoOpener(dbLabel string) (iconsvc.RepoOpener, error) {
	driver, dsn, err := r.dbSqlConn.DSN(dbLabel)
	if err != nil {
		return nil, fmt.Errorf("unknown database key %s on appRepoOpener: %w", dbLabel, err)
	}

	if driver != multidb.Postgres {
		return nil, fmt.Errorf("not supported db driver '%s' on label '%s'", driver, dbLabel)
	}

	return &appRepoOpener{driver: driver, dsn: dsn}, nil
}

func (r *RepositoryImpl) sqlxConn(repoName, dbLabel string) (sqlConn *sqlx.DB, err error) {
	repoConnInfo, ok := r.dbResourceMap[dbLabel]
	if !ok {
		err = fmt.Errorf("unknown database key %s on %s", dbLabel, repoName)
		return
	}

	switch repoConnInfo.Driver {
	case "postgres":
		return r.dbSqlConn.GetSqlx(multidb.Postgres, dbLabel)

	default:
		err = fmt.Errorf("not supported db driver '%s' on label '%s'", repoConnInfo.Driver, dbLabel)
		return
	}
}

// Close will close all dependencies.
func (r *RepositoryImpl) Close() error {
	if r == nil {
		return nil
	}

	if r.dbSqlConn == nil {
		return nil
	}

	var err error
	if _err := r.dbSqlConn.Close(); _err != nil {
		err = multierr.Append(err, fmt.Errorf("close db error: %w", _err))
	}

	return err
}

// appRepoOpener opens one fresh connection per call. The icon event
// handler uses it so the promote transaction never holds a pooled
// connection across image processing.
type appRepoOpener struct {
	driver multidb.Driver
	dsn    string
}

var _ iconsvc.RepoOpener = (*appRepoOpener)(nil)

func (o *appRepoOpener) OpenAppRepo(ctx context.Context) (repo apprepo.Repo, closeFn func() error, err error) {
	conn, err := sqlx.ConnectContext(ctx, o.driver.String(), o.dsn)
	if err != nil {
		err = fmt.Errorf("cannot open dedicated db connection: %w", err)
		return
	}

	repo, err = apprepo.Postgres(apprepo.RepoPostgresConfig{
		Connection: conn,
	})
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return repo, conn.Close, nil
}
