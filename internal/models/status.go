package models

// Phase represents where the controller is in its request cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Status is the human-readable line shown next to the submit control.
type Status struct {
	Phase   Phase  `json:"phase" msgpack:"phase"`
	Message string `json:"message" msgpack:"message"`
}

// Status messages shown to the user.
const (
	MsgReady      = "Выберите файл и нажмите «Проверить»."
	MsgNoFile     = "❌ Пожалуйста, выберите файл."
	MsgInProgress = "🔄 Идет обработка... (модель работает)"
	MsgDone       = "✅ Готово!"
	MsgErrorFmt   = "❌ Ошибка: %s"
)

// IdleStatus is the status of a page nobody has submitted from yet.
func IdleStatus() Status {
	return Status{Phase: PhaseIdle, Message: MsgReady}
}
