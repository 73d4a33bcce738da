package dialog

import "appointment-bot/internal/models"

// Stage - этап диалога с пользователем.
type Stage int

const (
	StageIdle Stage = iota
	StageName
	StagePhone
	StageDate
	StageTime
	StageConfirm
	StageLookupPhone
	StageLookupAction
	StageChangeTarget
	StageDeleteTarget
)

// Тип операции, выполняемой на подтверждении.
const (
	OperationAdd    = "add"
	OperationUpdate = "update"
)

// State - данные, накопленные за диалог одного чата.
// Живет от первого шага до завершения, отмены или отказа на подтверждении.
type State struct {
	Stage         Stage
	Name          string
	Phone         string
	SelectedDate  string // Формат: "02-01-2006"
	SelectedTime  string
	OperationType string
	AppointmentID string           // id заявки при изменении
	Appointments  []models.Booking // кэш списка заявок для выбора по номеру
}
