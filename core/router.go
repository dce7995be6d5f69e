package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"jaguar-gen/config"
)

// RoutingFetcher dispatches each dataset to the fetcher of its declared source.
// Datasets without a source go to Default. SQL datasets use the connection of
// their data source, opened on first use and shared afterwards.
type RoutingFetcher struct {
	Default  DataFetcher
	CSV      DataFetcher
	DynamoDB DataFetcher
	Provider config.Provider
	// Open connects to a data source; OpenSQLDataSource when nil.
	Open func(ds *config.DataSourceConfig) (*SQLDataFetcher, error)

	mu  sync.Mutex
	sql map[string]*SQLDataFetcher
}

// OpenSQLDataSource opens and pings the database behind ds.
func OpenSQLDataSource(ds *config.DataSourceConfig) (*SQLDataFetcher, error) {
	db, err := sql.Open(ds.Driver, ds.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to ping db: %w", err), db.Close())
	}
	return NewSQLDataFetcher(db, ds.Driver), nil
}

func (r *RoutingFetcher) Fetch(ctx context.Context, def *config.DatasetConfig, params map[string]string) (*Dataset, error) {
	var target DataFetcher
	switch def.Source {
	case "":
		target = r.Default
	case config.SourceCSV:
		target = r.CSV
	case config.SourceDynamoDB:
		target = r.DynamoDB
	case config.SourceSQL:
		f, err := r.sqlFetcher(def.DataSource)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", def.Name, err)
		}
		target = f
	}
	if target == nil {
		return nil, fmt.Errorf("dataset %s: no fetcher configured for source %q", def.Name, def.Source)
	}
	return target.Fetch(ctx, def, params)
}

func (r *RoutingFetcher) sqlFetcher(name string) (*SQLDataFetcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.sql[name]; ok {
		return f, nil
	}
	if r.Provider == nil {
		return nil, fmt.Errorf("data source %s: no provider", name)
	}
	ds, err := r.Provider.GetDataSourceConfig(name)
	if err != nil {
		return nil, err
	}
	open := r.Open
	if open == nil {
		open = OpenSQLDataSource
	}
	slog.Info("Connecting data source", "name", name, "driver", ds.Driver)
	f, err := open(ds)
	if err != nil {
		return nil, fmt.Errorf("data source %s: %w", name, err)
	}
	if r.sql == nil {
		r.sql = map[string]*SQLDataFetcher{}
	}
	r.sql[name] = f
	return f, nil
}

// Close releases the connections opened for SQL data sources, and the
// default fetcher's connection when it is a SQL one.
func (r *RoutingFetcher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if f, ok := r.Default.(*SQLDataFetcher); ok && f.DB != nil {
		if err := f.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close default data source: %w", err))
		}
	}
	for name, f := range r.sql {
		if f.DB == nil {
			continue
		}
		if err := f.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close data source %s: %w", name, err))
		}
	}
	r.sql = nil
	return errors.Join(errs...)
}
