package booking

import "errors"

// Errors in this block carry the message shown to the participant.
var (
	ErrSlotFull          = errors.New("満席です")
	ErrLotteryBooking    = errors.New("この撮影会は抽選制のため直接予約できません")
	ErrAlreadyBooked     = errors.New("この撮影会は既に予約済みです")
	ErrNotPublished      = errors.New("この撮影会は現在予約を受け付けていません")
	ErrSessionNotFound   = errors.New("撮影会が見つかりません")
	ErrSlotNotFound      = errors.New("撮影枠が見つかりません")
	ErrSlotRequired      = errors.New("撮影枠を選択してください")
	ErrSlotNotSelectable = errors.New("この撮影枠は選択できません")
	ErrBookingNotFound   = errors.New("予約が見つかりません")
	ErrBookingInProgress = errors.New("同じリクエストを処理中です")
	ErrFlowStep          = errors.New("この操作は現在のステップでは実行できません")
	ErrFlowNotFound      = errors.New("予約手続きが見つからないか期限切れです")
)

var ErrUnsupportedBookingType = errors.New("unsupported booking type")

// FallbackMessage is recorded when a booking attempt fails without a participant-facing reason.
const FallbackMessage = "予約に失敗しました"

var userFacing = []error{
	ErrSlotFull, ErrLotteryBooking, ErrAlreadyBooked, ErrNotPublished,
	ErrSessionNotFound, ErrSlotNotFound, ErrSlotRequired, ErrSlotNotSelectable,
	ErrBookingNotFound, ErrBookingInProgress, ErrFlowStep, ErrFlowNotFound,
}

// Message returns the participant-facing text for err, or FallbackMessage.
func Message(err error) string {
	for _, known := range userFacing {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return FallbackMessage
}
