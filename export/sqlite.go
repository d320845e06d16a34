package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"chanmask/mask"
)

const (
	sqliteResultCountInfo = 1000

	sqliteCreateTableTmpl = `CREATE TABLE IF NOT EXISTS chanmask (
		"ID"           INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"Identifier"   TEXT NOT NULL,
		"Source"       TEXT NOT NULL,
		"Filter"       TEXT NOT NULL,
		"Channel"      INTEGER,
		"FreqLow"      INTEGER,
		"FreqHigh"     INTEGER,
		"Power"        REAL,
		"Median"       REAL,
		"Threshold"    REAL,
		"Flagged"      INTEGER,
		"SampleCount"  INTEGER,
		"Start"        INTEGER,
		"End"          INTEGER
	);`
	sqliteInsertResultTmpl = `INSERT INTO chanmask (
		Identifier,
		Source,
		Filter,
		Channel,
		FreqLow,
		FreqHigh,
		Power,
		Median,
		Threshold,
		Flagged,
		SampleCount,
		Start,
		End
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
)

type SQLite struct {
	DB *sql.DB
}

func (s *SQLite) Write(ctx context.Context, results <-chan mask.Result) error {
	if err := sqliteCreateTableIfNotExists(s.DB); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}

	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	for r := range results {
		counts["total"] += 1
		if err := sqliteInsertResult(s.DB, r); err != nil {
			counts["error"] += 1
			glog.Warningf("error storing in sqlite DB: %s\n", err)
			continue
		}
		counts["success"] += 1
		if counts["total"]%sqliteResultCountInfo == 0 {
			glog.Infof("Result export counts: %+v\n", counts)
		}
	}

	return nil
}

func sqliteCreateTableIfNotExists(db *sql.DB) error {
	statement, err := db.Prepare(sqliteCreateTableTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(); err != nil {
		return err
	}

	return nil
}

func sqliteInsertResult(db *sql.DB, r mask.Result) error {
	statement, err := db.Prepare(sqliteInsertResultTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(r.Identifier, r.Source, r.Filter, r.Channel, r.FreqLow, r.FreqHigh, r.Power, r.Median, r.Threshold, r.Flagged, r.SampleCount, r.Start.UnixMilli(), r.End.UnixMilli()); err != nil {
		return err
	}

	return nil
}
