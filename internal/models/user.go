package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	APIKey       string    `json:"api_key"`
	CreatedAt    time.Time `json:"created_at"`
}
