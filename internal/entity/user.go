package entity

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"` // bcrypt hash, never serialized
	IsAdmin  bool   `json:"is_admin"`
}

/*
Mysql Schema:

CREATE TABLE users (
	id INT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(80) NOT NULL,
	password VARCHAR(255) NOT NULL,
	is_admin TINYINT(1) NOT NULL DEFAULT 0
);
*/
