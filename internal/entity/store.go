package entity

type Store struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Items []*Item `json:"items"`
}

/*
Mysql Schema:

CREATE TABLE stores (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(80) NOT NULL
);
*/
