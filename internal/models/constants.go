package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	BlockKindShift = "shift"
	BlockKindBreak = "break"
	BlockKindAway  = "away"
)

const (
	// DefaultOpenTime время открытия салона, если настройки не заданы
	DefaultOpenTime = "09:00"

	// DefaultCloseTime время закрытия салона, если настройки не заданы
	DefaultCloseTime = "19:00"

	// DefaultTimezone часовой пояс салона по умолчанию
	DefaultTimezone = "Europe/Paris"

	// DefaultRangeDays горизонт выдачи доступности по умолчанию
	DefaultRangeDays = 42

	// MaxRangeDays максимальный горизонт одного запроса доступности
	MaxRangeDays = 180

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000
)

const (
	// DateLayout формат календарной даты на проводе
	DateLayout = "2006-01-02"

	// ClockLayout формат времени дня на проводе
	ClockLayout = "15:04"
)
