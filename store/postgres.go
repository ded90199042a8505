package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "gopkg.in/mattes/migrate.v1/driver/postgres" // Import the postgres migrations driver
	"gopkg.in/mattes/migrate.v1/migrate"

	"github.com/weaveworks/pubbot/common/dbwait"
)

// How long NewPostgres waits for the database to come up.
const connectTimeout = 2 * time.Minute

// invalid_text_representation, raised when a value cannot be cast to bigint.
const pqInvalidTextRepresentation = "22P02"

// Postgres is a postgres store, for dev and production
type Postgres struct {
	*sql.DB
	squirrel.StatementBuilderType
}

// NewPostgres connects to a postgres store, waiting for it to come up, and
// runs migrations when a directory is given.
func NewPostgres(uri, migrationsDir string) (*Postgres, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, err
	}
	if err := dbwait.Wait(context.Background(), db, connectTimeout); err != nil {
		db.Close()
		return nil, err
	}
	if migrationsDir != "" {
		log.Infof("Running Database Migrations...")
		if errs, ok := migrate.UpSync(uri, migrationsDir); !ok {
			for _, err := range errs {
				log.Error(err)
			}
			db.Close()
			return nil, errors.New("Database migrations failed")
		}
	}
	return &Postgres{
		DB:                   db,
		StatementBuilderType: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).RunWith(db),
	}, nil
}

// Get returns the value of key.
func (p *Postgres) Get(_ context.Context, key string) (string, bool, error) {
	var value string
	err := p.Select("value").
		From("kv").
		Where(squirrel.Eq{"key": key}).
		QueryRow().
		Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, true, nil
}

// Set sets key to value.
func (p *Postgres) Set(_ context.Context, key, value string) error {
	_, err := p.Insert("kv").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").
		Exec()
	return err
}

// Delete removes key from both the value and the set tables.
func (p *Postgres) Delete(_ context.Context, key string) error {
	if _, err := p.StatementBuilderType.Delete("kv").Where(squirrel.Eq{"key": key}).Exec(); err != nil {
		return err
	}
	_, err := p.StatementBuilderType.Delete("kv_sets").Where(squirrel.Eq{"key": key}).Exec()
	return err
}

// Incr increments the integer at key in a single statement.
func (p *Postgres) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	err := p.Insert("kv").
		Columns("key", "value").
		Values(key, "1").
		Suffix("ON CONFLICT (key) DO UPDATE SET value = (kv.value::bigint + 1)::text RETURNING value::bigint").
		QueryRow().
		Scan(&n)
	if e, ok := err.(*pq.Error); ok && e.Code == pqInvalidTextRepresentation {
		return 0, ErrNotInteger
	}
	return n, err
}

// SAdd adds member to the set at key.
func (p *Postgres) SAdd(_ context.Context, key, member string) (bool, error) {
	res, err := p.Insert("kv_sets").
		Columns("key", "member").
		Values(key, member).
		Suffix("ON CONFLICT DO NOTHING").
		Exec()
	return changed(res, err)
}

// SRem removes member from the set at key.
func (p *Postgres) SRem(_ context.Context, key, member string) (bool, error) {
	res, err := p.StatementBuilderType.Delete("kv_sets").
		Where(squirrel.Eq{"key": key, "member": member}).
		Exec()
	return changed(res, err)
}

// SMembers lists the set at key.
func (p *Postgres) SMembers(_ context.Context, key string) ([]string, error) {
	rows, err := p.Select("member").
		From("kv_sets").
		Where(squirrel.Eq{"key": key}).
		OrderBy("member").
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// MGet returns the values of keys.
func (p *Postgres) MGet(_ context.Context, keys ...string) ([]*string, error) {
	result := make([]*string, len(keys))
	if len(keys) == 0 {
		return result, nil
	}
	rows, err := p.Select("key", "value").
		From("kv").
		Where(squirrel.Eq{"key": keys}).
		Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		found[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, key := range keys {
		if v, ok := found[key]; ok {
			result[i] = &v
		}
	}
	return result, nil
}

// Truncate clears all the data in pg. Should only be used in tests!
func (p *Postgres) Truncate() error {
	for _, q := range []string{`truncate table kv;`, `truncate table kv_sets;`} {
		if _, err := p.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func changed(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
