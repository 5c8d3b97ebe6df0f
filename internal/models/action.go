package models

import "github.com/google/uuid"

// Action: запись каталога поощряемых действий.
type Action struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Points      int64     `json:"points"`
}
