package service

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrConflict           = errors.New("record already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Storage failures split per cause so the api layer can answer 400
	// for a bad write and 503 for a dead database.
	ErrConstraint  = errors.New("constraint violation")
	ErrStorageDown = errors.New("storage unavailable")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// MySQL server error numbers for write-constraint violations.
const (
	mysqlDuplicateEntry  = 1062
	mysqlForeignKeyChild = 1452
)

// storageError classifies a driver error into the service taxonomy.
func storageError(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry, mysqlForeignKeyChild:
			return fmt.Errorf("%w: %v", ErrConstraint, err)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStorageDown, err)
	}

	return err
}
