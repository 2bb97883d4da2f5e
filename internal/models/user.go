package models

import "time"

// Usuario is a teacher allowed to drive the SED portal through the API.
// Portal passwords are never stored; they arrive with each request.
type Usuario struct {
	ID        string    `db:"id" json:"id"`
	Telefone  string    `db:"telefone" json:"telefone"`
	Login     string    `db:"login" json:"login"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
