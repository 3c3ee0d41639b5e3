package migrations

import (
	"database/sql"
	"time"
)

// Tables in foreign-key order: items references stores.
var tables = []string{
	`
		CREATE TABLE IF NOT EXISTS stores (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(80) NOT NULL
		);
	`,
	`
		CREATE TABLE IF NOT EXISTS items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(80) NOT NULL,
			price DOUBLE NOT NULL,
			store_id INT NOT NULL,
			FOREIGN KEY (store_id) REFERENCES stores(id)
		);
	`,
	`
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(80) NOT NULL,
			password VARCHAR(255) NOT NULL,
			is_admin TINYINT(1) NOT NULL DEFAULT 0
		);
	`,
}

// AutoMigrate creates the catalog tables if they do not exist.
func AutoMigrate(retries int, db *sql.DB) error {
	for _, query := range tables {
		_, err := db.Exec(query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
