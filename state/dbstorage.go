package state

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ts4z/homegame/dbutil"
	"github.com/ts4z/homegame/he"
	"github.com/ts4z/homegame/model"
)

//go:embed schema.sql
var schema string

// DBStorage keeps each tournament as one JSON document in Postgres, guarded
// by an optimistic lock column.
type DBStorage struct {
	db *sql.DB
}

var _ TournamentStorage = &DBStorage{}

func NewDBStorage(db *sql.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (s *DBStorage) Close() {
	s.db.Close()
}

func (s *DBStorage) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the tables and the change notification trigger if
// they are missing.
func (s *DBStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func marshalForStorage(t *model.Tournament) ([]byte, error) {
	cpy := *t
	// These come from the database row, not the JSON.
	cpy.TournamentID = 0
	cpy.Version = 0
	return json.Marshal(&cpy)
}

func (s *DBStorage) FetchOverview(ctx context.Context, offset, limit int) (*model.Overview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tournament_id, optimistic_lock, model_data FROM tournaments ORDER BY tournament_id LIMIT $1 OFFSET $2;`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overview := &model.Overview{Slugs: []model.TournamentSlug{}}
	for rows.Next() {
		var id, lock int64
		var bytes []byte

		if err := rows.Scan(&id, &lock, &bytes); err != nil {
			log.Printf("row scan failed: %v", err)
			continue
		}
		t := model.Tournament{}
		if err := json.Unmarshal(bytes, &t); err != nil {
			log.Printf("warning: tournament %d has unparsable JSON: %v", id, err)
			continue
		}
		t.TournamentID = id
		t.Version = lock
		overview.Slugs = append(overview.Slugs, t.Slug())
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return overview, nil
}

func (s *DBStorage) FetchTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT optimistic_lock, model_data FROM tournaments WHERE tournament_id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var t *model.Tournament

	for rows.Next() {
		if t != nil {
			return nil, fmt.Errorf("can't happen: duplicate tournament id %d", id)
		}

		var lock int64
		var bytes []byte

		if err := rows.Scan(&lock, &bytes); err != nil {
			return nil, err
		}

		t = &model.Tournament{}
		if err := json.Unmarshal(bytes, t); err != nil {
			return nil, err
		}

		t.TournamentID = id
		t.Version = lock
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if t == nil {
		return nil, he.New(404, fmt.Errorf("no such tournament id %d: %w", id, ErrNotFound))
	}

	return t, nil
}

func (s *DBStorage) CreateTournament(ctx context.Context, t *model.Tournament) (int64, error) {
	bytes, err := marshalForStorage(t)
	if err != nil {
		return -1, err
	}

	var id int64
	err = dbutil.WithTx(ctx, s.db, func(tx *dbutil.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO tournaments (optimistic_lock, model_data) VALUES (0, $1) RETURNING tournament_id;`,
			bytes).Scan(&id)
	})
	if err != nil {
		return -1, fmt.Errorf("inserting tournament: %w", err)
	}

	t.TournamentID = id
	t.Version = 0
	log.Printf("created tournament id=%d", id)
	return id, nil
}

func (s *DBStorage) SaveTournament(ctx context.Context, t *model.Tournament) error {
	bytes, err := marshalForStorage(t)
	if err != nil {
		return err
	}
	err = dbutil.WithTx(ctx, s.db, func(tx *dbutil.Tx) error {
		result, err := tx.Exec(ctx,
			`UPDATE tournaments SET optimistic_lock=$1+1, model_data=$2 WHERE tournament_id=$3 AND optimistic_lock=$1;`,
			t.Version,
			bytes,
			t.TournamentID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return he.New(409, fmt.Errorf("tournament %d version %d, %d rows affected: %w", t.TournamentID, t.Version, n, ErrOptimisticLock))
		}
		return nil
	})
	if err != nil {
		log.Printf("debug: update of tournament %d failed: %v", t.TournamentID, err)
		return err
	}

	t.Version++
	log.Printf("debug: wrote tournament id=%d version=%d", t.TournamentID, t.Version)
	return nil
}

func (s *DBStorage) DeleteTournament(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tournaments WHERE tournament_id=$1;`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return he.New(404, fmt.Errorf("no such tournament id %d: %w", id, ErrNotFound))
	}
	return nil
}
