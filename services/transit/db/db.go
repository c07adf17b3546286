package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3" // Blank import for sql drivers is "standard"
	"github.com/rmrobinson/timetables/services/transit"
	"github.com/rmrobinson/timetables/services/transit/gtfs"
)

var (
	// ErrDatabaseNotSetup is returned if an operation is performed on a created but not opened database
	ErrDatabaseNotSetup = errors.New("database not setup")
	// ErrNoRuns is returned if no connection index has been written yet.
	ErrNoRuns = errors.New("no index written")
)

// Run describes the build that produced the stored connection index.
type Run struct {
	ID          string
	GeneratedAt time.Time
	Pairs       int
	Segments    int
}

// DB stores the most recent connection index in sqlite so it can be queried without the JSON file.
type DB struct {
	db *sql.DB
}

// Open attempts to load the sqlite file at the specified path.
// Once Open succeeds the caller should be sure to invoke Close when it is finished with the handle.
func (db *DB) Open(fname string) error {
	sqldb, err := sql.Open("sqlite3", fname)
	if err != nil {
		return err
	}

	db.db = sqldb
	return db.setupDB()
}

// Close releases the handle to sqlite.
func (db *DB) Close() {
	if db.db != nil {
		db.db.Close()
	}
}

func (db *DB) setupDB() error {
	setupCmd := `CREATE TABLE IF NOT EXISTS runs(
		id TEXT NOT NULL PRIMARY KEY,
		generated_at INTEGER NOT NULL,
		pairs INTEGER NOT NULL,
		segments INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS segments(
		id INTEGER NOT NULL PRIMARY KEY,
		from_station TEXT NOT NULL,
		to_station TEXT NOT NULL,
		position INTEGER NOT NULL,
		from_stop_id TEXT NOT NULL,
		to_stop_id TEXT NOT NULL,
		from_stop_type INTEGER,
		to_stop_type INTEGER,
		departure_time TEXT,
		arrival_time TEXT,
		trip_id TEXT,
		service_id TEXT,
		trip_headsign TEXT,
		route_id TEXT,
		route_type TEXT,
		agency_name TEXT,
		route_short_name TEXT,
		route_long_name TEXT
		);
		CREATE INDEX IF NOT EXISTS segments_pair ON segments(from_station, to_station, position);
		CREATE TABLE IF NOT EXISTS segment_dates(
		segment_id INTEGER NOT NULL,
		date TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS segment_dates_segment ON segment_dates(segment_id);`

	_, err := db.db.Exec(setupCmd)
	return err
}

// WriteIndex replaces the stored index with ci, recording it under runID.
func (db *DB) WriteIndex(ctx context.Context, runID string, generatedAt time.Time, ci transit.ConnectionIndex) error {
	if db.db == nil {
		return ErrDatabaseNotSetup
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, cmd := range []string{`DELETE FROM segment_dates;`, `DELETE FROM segments;`, `DELETE FROM runs;`} {
		if _, err := tx.ExecContext(ctx, cmd); err != nil {
			return err
		}
	}

	segmentStmt, err := tx.PrepareContext(ctx, `INSERT INTO segments(
		from_station,
		to_station,
		position,
		from_stop_id,
		to_stop_id,
		from_stop_type,
		to_stop_type,
		departure_time,
		arrival_time,
		trip_id,
		service_id,
		trip_headsign,
		route_id,
		route_type,
		agency_name,
		route_short_name,
		route_long_name
		) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer segmentStmt.Close()

	dateStmt, err := tx.PrepareContext(ctx, `INSERT INTO segment_dates(segment_id, date) VALUES (?, ?);`)
	if err != nil {
		return err
	}
	defer dateStmt.Close()

	pairs := ci.Pairs()
	for _, pair := range pairs {
		for pos, s := range ci.Connections(pair.From, pair.To) {
			res, err := segmentStmt.ExecContext(ctx,
				pair.From,
				pair.To,
				pos,
				s.FromStopID,
				s.ToStopID,
				nullableInt(s.FromStopType),
				nullableInt(s.ToStopType),
				s.DepartureTime,
				s.ArrivalTime,
				s.TripID,
				s.ServiceID,
				s.TripHeadsign,
				s.RouteID,
				string(s.RouteType),
				s.AgencyName,
				s.RouteShort,
				s.RouteLong,
			)
			if err != nil {
				return err
			}

			segmentID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			for _, date := range s.Dates {
				if _, err := dateStmt.ExecContext(ctx, segmentID, date); err != nil {
					return err
				}
			}
		}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, generated_at, pairs, segments) VALUES (?, ?, ?, ?);`,
		runID, generatedAt.Unix(), len(pairs), ci.Len())
	if err != nil {
		return err
	}

	return tx.Commit()
}

// LastRun returns the build that wrote the stored index.
func (db *DB) LastRun(ctx context.Context) (*Run, error) {
	if db.db == nil {
		return nil, ErrDatabaseNotSetup
	}

	r := &Run{}
	var generatedAt int64
	err := db.db.QueryRowContext(ctx, `SELECT id, generated_at, pairs, segments FROM runs ORDER BY generated_at DESC LIMIT 1;`).
		Scan(&r.ID, &generatedAt, &r.Pairs, &r.Segments)
	if err == sql.ErrNoRows {
		return nil, ErrNoRuns
	} else if err != nil {
		return nil, err
	}

	r.GeneratedAt = time.Unix(generatedAt, 0)
	return r, nil
}

// Pairs lists the stored station pairs ordered by origin then destination.
func (db *DB) Pairs(ctx context.Context) ([]transit.Pair, error) {
	if db.db == nil {
		return nil, ErrDatabaseNotSetup
	}

	rows, err := db.db.QueryContext(ctx, `SELECT DISTINCT from_station, to_station FROM segments ORDER BY from_station, to_station;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []transit.Pair
	for rows.Next() {
		var p transit.Pair
		if err := rows.Scan(&p.From, &p.To); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// Connections returns the stored segments from one station to another, in timetable order.
func (db *DB) Connections(ctx context.Context, from, to string) ([]*transit.Segment, error) {
	if db.db == nil {
		return nil, ErrDatabaseNotSetup
	}

	rows, err := db.db.QueryContext(ctx, `SELECT
		id,
		from_stop_id,
		to_stop_id,
		from_stop_type,
		to_stop_type,
		departure_time,
		arrival_time,
		trip_id,
		service_id,
		trip_headsign,
		route_id,
		route_type,
		agency_name,
		route_short_name,
		route_long_name
		FROM segments WHERE from_station = ? AND to_station = ? ORDER BY position;`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*transit.Segment
	byID := map[int64]*transit.Segment{}
	for rows.Next() {
		var id int64
		var fromType, toType sql.NullInt64
		var routeType string
		s := &transit.Segment{
			FromStation: from,
			ToStation:   to,
			Dates:       []string{},
		}

		err := rows.Scan(
			&id,
			&s.FromStopID,
			&s.ToStopID,
			&fromType,
			&toType,
			&s.DepartureTime,
			&s.ArrivalTime,
			&s.TripID,
			&s.ServiceID,
			&s.TripHeadsign,
			&s.RouteID,
			&routeType,
			&s.AgencyName,
			&s.RouteShort,
			&s.RouteLong,
		)
		if err != nil {
			return nil, err
		}

		s.FromStopType = intFromNull(fromType)
		s.ToStopType = intFromNull(toType)
		s.RouteType = gtfs.RouteType(routeType)
		segments = append(segments, s)
		byID[id] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.loadDates(ctx, from, to, byID); err != nil {
		return nil, err
	}
	return segments, nil
}

func (db *DB) loadDates(ctx context.Context, from, to string, byID map[int64]*transit.Segment) error {
	if len(byID) < 1 {
		return nil
	}

	rows, err := db.db.QueryContext(ctx, `SELECT d.segment_id, d.date FROM segment_dates d
		JOIN segments s ON s.id = d.segment_id
		WHERE s.from_station = ? AND s.to_station = ?
		ORDER BY d.segment_id, d.date;`, from, to)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var date string
		if err := rows.Scan(&id, &date); err != nil {
			return err
		}
		if s, ok := byID[id]; ok {
			s.Dates = append(s.Dates, date)
		}
	}
	return rows.Err()
}

func nullableInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
