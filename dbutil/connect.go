package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"os"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ts4z/homegame/config"
)

type cloudEnvSettings struct {
	dbUser,
	dbPwd,
	dbName,
	instanceConnectionName,
	usePrivate string
}

func (s *cloudEnvSettings) getenv() error {
	unset := []string{}
	getenv := func(k string) string {
		v := os.Getenv(k)
		if v == "" {
			unset = append(unset, k)
		}
		return v
	}

	s.dbUser = getenv("DB_USER")                                  // e.g. 'my-db-user'
	s.dbPwd = getenv("DB_PASS")                                   // e.g. 'my-db-password'
	s.dbName = getenv("DB_NAME")                                  // e.g. 'my-database'
	s.instanceConnectionName = getenv("INSTANCE_CONNECTION_NAME") // e.g. 'project:region:instance'
	s.usePrivate = os.Getenv("PRIVATE_IP")

	if len(unset) > 0 {
		return fmt.Errorf("cloudsqlconn: unset variables: %+v", unset)
	}
	return nil
}

func connectWithConnector(ctx context.Context) (*sql.DB, error) {
	env := &cloudEnvSettings{}
	if err := env.getenv(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("user=%s password=%s database=%s", env.dbUser, env.dbPwd, env.dbName)
	pgxConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if env.usePrivate != "" {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	// Refresh certificates when needed rather than on a timer.
	opts = append(opts, cloudsqlconn.WithLazyRefresh())
	d, err := cloudsqlconn.NewDialer(ctx, opts...)
	if err != nil {
		return nil, err
	}
	pgxConfig.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, env.instanceConnectionName)
	}
	dbURI := stdlib.RegisterConnConfig(pgxConfig)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return dbPool, nil
}

func connectWithPgx(_ context.Context) (*sql.DB, error) {
	url := config.DBURL()
	if url == "" {
		return nil, errors.New("database URL is empty (set db_url or HOMEGAME_DB_URL)")
	}
	log.Printf("connecting to database")
	return sql.Open("pgx", url)
}

// Connect opens the database named by the configuration.  The pool is
// pinged before it's returned.
func Connect(ctx context.Context) (*sql.DB, error) {
	factories := map[string]func(context.Context) (*sql.DB, error){
		"connector": connectWithConnector,
		"pgx":       connectWithPgx,
	}
	factory, ok := factories[config.SQLConnector()]
	if !ok {
		return nil, fmt.Errorf("unknown value for sql_connector: %q", config.SQLConnector())
	}
	db, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("can't reach database: %w", err)
	}
	return db, nil
}
