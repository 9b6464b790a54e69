package models

import "time"

// User представляет учетную запись сотрудника студии.
// Хеш пароля намеренно не входит в модель и никогда не покидает слой хранилища.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"` // worker, admin
	RegisteredAt time.Time `json:"registered_at"`
}
