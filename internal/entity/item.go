package entity

type Item struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	StoreID int     `json:"store_id"`
}

/*
Mysql Schema:

CREATE TABLE items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(80) NOT NULL,
	price DOUBLE NOT NULL,
	store_id INT NOT NULL,
	FOREIGN KEY (store_id) REFERENCES stores(id)
);
*/
