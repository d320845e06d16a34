package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"chanmask/export"
	"chanmask/filter"
	"chanmask/mask"
	"chanmask/spectra"

	// Blind import support for sqlite3 used by sqlite.go.
	_ "github.com/mattn/go-sqlite3"
)

var (
	listen   = flag.String("listen", ":8443", "")
	certFile = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile  = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	output   = flag.String("output", "", "Export mechanism to use (one of: csv, sqlite, mysql)")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/chanmask", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "chanmask", "Name of the DB to use.")
)

const (
	collectEndpoint = "/chanmask/v1/collect"
	maskEndpoint    = "/chanmask/v1/mask"
)

type maskRequest struct {
	Identifier string    `json:"identifier"`
	Source     string    `json:"source"`
	Channels   int       `json:"channels"`
	Tolerance  float64   `json:"tolerance"`
	Samples    []float64 `json:"samples"`
}

type maskResponse struct {
	Identifier string  `json:"identifier"`
	Mask       []bool  `json:"mask"`
	Median     float64 `json:"median"`
	Threshold  float64 `json:"threshold"`
}

type chanmaskServer struct {
	results chan mask.Result
}

// maskHandler computes the per-channel Tsys mask for the posted spectra,
// returns it and forwards the per-channel rows to the configured exporter.
func (s *chanmaskServer) maskHandler(c *gin.Context) {
	req := maskRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Identifier == "" {
		req.Identifier = uuid.NewString()
	}
	if req.Source == "" {
		req.Source = "api"
	}

	view, err := spectra.New(req.Samples, req.Channels)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tsys := &filter.Tsys[float64]{Tolerance: req.Tolerance}
	eval, err := tsys.Evaluate(view)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	dropped := 0
	for ch, flagged := range eval.Mask {
		r := mask.Result{
			Identifier:  req.Identifier,
			Source:      req.Source,
			Filter:      tsys.Name(),
			Channel:     ch,
			Power:       eval.Profile[ch],
			Median:      eval.Median,
			Threshold:   eval.Threshold,
			Flagged:     flagged,
			SampleCount: int64(view.Samples()),
			Start:       now,
			End:         now,
		}
		// The exporter drains this channel asynchronously. A stalled exporter
		// must not wedge the request, so overflow is dropped rather than
		// blocked on.
		select {
		case s.results <- r:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		glog.Warningf("export queue full, dropped %d of %d results for %s\n", dropped, len(eval.Mask), req.Identifier)
	}

	c.JSON(http.StatusOK, maskResponse{
		Identifier: req.Identifier,
		Mask:       eval.Mask,
		Median:     eval.Median,
		Threshold:  eval.Threshold,
	})
}

func (s *chanmaskServer) collectHandler(c *gin.Context) {
	results := []mask.Result{}
	if err := c.ShouldBindJSON(&results); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, r := range results {
		s.results <- r
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"resultCount": len(results),
	})
}

func newRouter(s *chanmaskServer) *gin.Engine {
	router := gin.Default()
	router.POST(maskEndpoint, s.maskHandler)
	router.POST(collectEndpoint, s.collectHandler)
	return router
}

func main() {
	ctx := context.Background()
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "csv":
		exporter = &export.CSV{}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		exporter = &export.SQLite{
			DB: db,
		}
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			glog.Exitf("unable to read MySQL password file %q: %s\n", *mysqlPasswordFile, err)
		}
		cfg := mysql.Config{
			User:   *mysqlUser,
			Passwd: strings.TrimSpace(string(pass)),
			Net:    "tcp",
			Addr:   *mysqlServer,
			DBName: *mysqlDBName,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			glog.Exitf("unable to open MySQL DB %q: %s", *mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		exporter = &export.MySQL{
			DB: db,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: csv, sqlite, mysql", *output)
	}

	// Export results.
	results := make(chan mask.Result, 1000)
	go func() {
		if err := exporter.Write(ctx, results); err != nil {
			glog.Fatal(err)
		}
	}()

	// Configure and run webserver.
	router := newRouter(&chanmaskServer{results: results})
	if *certFile != "" || *keyFile != "" {
		glog.Fatal(router.RunTLS(*listen, *certFile, *keyFile))
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		glog.Fatal(router.Run(*listen))
	}

	glog.Flush()
}
