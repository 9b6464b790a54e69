package models

const (
	StatusPending  = "pending"
	StatusAttended = "attended"
	StatusMissed   = "missed"
)

const (
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

const (
	// DefaultMinPasswordLength минимальная длина пароля при регистрации
	DefaultMinPasswordLength = 4

	// DefaultSessionTTL время жизни сессии оператора в секундах
	DefaultSessionTTL = 24 * 60 * 60

	// DefaultLoginRPS частота попыток входа по одному телефону в секунду
	DefaultLoginRPS = 1.0

	// DefaultLoginBurst разрешенная пачка попыток входа
	DefaultLoginBurst = 5
)

// ValidStatus сообщает, входит ли значение в множество признанных статусов.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusAttended, StatusMissed:
		return true
	}
	return false
}
