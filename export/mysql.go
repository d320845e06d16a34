package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"chanmask/mask"
)

const (
	mysqlResultCountInfo = 1000

	mysqlCreateTableTmpl = `CREATE TABLE IF NOT EXISTS chanmask (
		ID           INTEGER NOT NULL PRIMARY KEY AUTO_INCREMENT,
		Identifier   TEXT NOT NULL,
		Source       TEXT NOT NULL,
		Filter       TEXT NOT NULL,
		Channel      INTEGER,
		FreqLow      BIGINT,
		FreqHigh     BIGINT,
		Power        DOUBLE,
		Median       DOUBLE,
		Threshold    DOUBLE,
		Flagged      BOOLEAN,
		SampleCount  BIGINT,
		Start        BIGINT,
		End          BIGINT
	);`
	mysqlInsertResultTmpl = `INSERT INTO chanmask(
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

type MySQL struct {
	DB *sql.DB
}

func (m *MySQL) Write(ctx context.Context, results <-chan mask.Result) error {
	if err := mysqlCreateTableIfNotExists(m.DB); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}

	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	for r := range results {
		counts["total"] += 1
		if err := mysqlInsertResult(m.DB, r); err != nil {
			counts["error"] += 1
			glog.Warningf("error storing in MySQL DB: %s\n", err)
			continue
		}
		counts["success"] += 1
		if counts["total"]%mysqlResultCountInfo == 0 {
			glog.Infof("Result export counts: %+v\n", counts)
		}
	}

	return nil
}

func mysqlCreateTableIfNotExists(db *sql.DB) error {
	statement, err := db.Prepare(mysqlCreateTableTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(); err != nil {
		return err
	}

	return nil
}

func mysqlInsertResult(db *sql.DB, r mask.Result) error {
	statement, err := db.Prepare(mysqlInsertResultTmpl)
	if err != nil {
		return err
	}
	if _, err := statement.Exec(r.Identifier, r.Source, r.Filter, r.Channel, r.FreqLow, r.FreqHigh, r.Power, r.Median, r.Threshold, r.Flagged, r.SampleCount, r.Start.UnixMilli(), r.End.UnixMilli()); err != nil {
		return err
	}

	return nil
}
