package models

import "time"

// Company is a business the simulator writes replies on behalf of.
type Company struct {
	ID          int64     `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	URL         string    `db:"url"         json:"url"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}
