package repository

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect is the SQL flavour behind a *sql.DB.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// DefaultSQLitePath is used when no database URL is configured.
const DefaultSQLitePath = "file:dealbroker.db"

// Open connects to databaseURL. mysql:// (and mysql+pymysql://) URLs go to
// MySQL, sqlite:// URLs and the empty string go to SQLite.
func Open(databaseURL string) (*sql.DB, Dialect, error) {
	dialect, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == SQLite {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}
	return db, dialect, nil
}

// ParseURL turns a database URL into a driver name and DSN.
func ParseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case databaseURL == "":
		return SQLite, DefaultSQLitePath, nil
	case strings.HasPrefix(databaseURL, "sqlite:"):
		path := strings.TrimPrefix(databaseURL, "sqlite:")
		path = strings.TrimPrefix(path, "//")
		// sqlite:///./test.db names a relative path
		if strings.HasPrefix(path, "/./") {
			path = path[1:]
		}
		if path == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", databaseURL)
		}
		return SQLite, path, nil
	case strings.HasPrefix(databaseURL, "mysql"):
		dsn, err := mysqlDSN(databaseURL)
		if err != nil {
			return "", "", err
		}
		return MySQL, dsn, nil
	}
	return "", "", fmt.Errorf("unsupported database url %q", databaseURL)
}

func mysqlDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}
	if u.Scheme != "mysql" && u.Scheme != "mysql+pymysql" {
		return "", fmt.Errorf("unsupported mysql scheme %q", u.Scheme)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	// updates that change nothing still count the matched row
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	for k, v := range u.Query() {
		if len(v) > 0 {
			cfg.Params[k] = v[0]
		}
	}
	return cfg.FormatDSN(), nil
}
