package models

import "time"

// Booking представляет одну запись клиента на сеанс.
// Date хранится как строка в формате БД и сравнивается лексикографически.
type Booking struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Date      string    `json:"date"`
	Bought    int64     `json:"bought"`
	Status    string    `json:"status"` // pending, attended, missed
	CreatedBy *int64    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
