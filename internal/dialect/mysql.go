package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

var mysqlTypes = typeTable{
	types.TypeInteger: "BIGINT",
	types.TypeReal:    "DOUBLE",
	types.TypeText:    "TEXT",
	types.TypeBinary:  "BLOB",
	types.TypeBoolean: "BOOLEAN",
}

// Server error numbers treated as constraint violations.
var mysqlConstraintErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1216: true, // no referenced row (legacy)
	1217: true, // row is referenced (legacy)
	1451: true, // row is referenced
	1452: true, // no referenced row
	3819: true, // check constraint violated
}

// Server error numbers treated as connection failures.
var mysqlConnectionErrors = map[uint16]bool{
	1040: true, // too many connections
	1045: true, // access denied
	1053: true, // server shutdown in progress
	2006: true, // server has gone away
	2013: true, // lost connection during query
}

// MySQL is the client-server backend provided by go-sql-driver/mysql.
type MySQL struct{}

func (MySQL) Name() string       { return types.BackendMySQL }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) PrimaryKey() string { return "id BIGINT AUTO_INCREMENT PRIMARY KEY" }

func (MySQL) TypeName(t types.SemanticType) (string, error) { return mysqlTypes.lookup(t) }

func (MySQL) ReturningID() bool { return false }

func (MySQL) EmptyInsert(table string) string {
	return "INSERT INTO " + table + " () VALUES ()"
}

func (MySQL) TablesQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name"
}

func (MySQL) Classify(err error) types.PersistenceKind {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch {
		case mysqlConstraintErrors[myErr.Number]:
			return types.KindConstraint
		case mysqlConnectionErrors[myErr.Number]:
			return types.KindConnection
		}
		return types.KindOther
	}
	if errors.Is(err, mysql.ErrInvalidConn) || connectionFailure(err) {
		return types.KindConnection
	}
	return types.KindOther
}

// Open builds the driver configuration from cfg. ClientFoundRows is always
// enabled so an update that changes nothing still reports its matched row.
func (MySQL) Open(cfg types.Config) (*sql.DB, error) {
	myCfg, err := mysqlConfig(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(myCfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

func mysqlConfig(cfg types.Config) (*mysql.Config, error) {
	var myCfg *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		myCfg = parsed
	} else {
		host := cfg.Host
		if host == "" {
			host = "localhost"
		}
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		myCfg = mysql.NewConfig()
		myCfg.User = cfg.User
		myCfg.Passwd = cfg.Password
		myCfg.Net = "tcp"
		myCfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
		myCfg.DBName = cfg.Database
	}
	myCfg.ParseTime = true
	myCfg.ClientFoundRows = true
	return myCfg, nil
}
