package models

// ClientHistory агрегирует посещаемость клиента по номеру телефона.
// LastName — лексикографический максимум имен, под которыми клиент записывался.
type ClientHistory struct {
	Attended int64  `json:"attended"`
	Missed   int64  `json:"missed"`
	LastName string `json:"last_name"`
}

// Statistics — сводные счетчики по всем записям.
// Bought считает записи с bought = 1, а не сумму значений поля.
type Statistics struct {
	Total    int64 `json:"total"`
	Attended int64 `json:"attended"`
	Missed   int64 `json:"missed"`
	Pending  int64 `json:"pending"`
	Bought   int64 `json:"bought"`
}
