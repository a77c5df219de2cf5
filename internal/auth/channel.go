package auth

import "context"

// ConfirmationChannel delivers login confirmation prompts to a user's chat.
// Delivery is best-effort: the reply arrives later as a separate inbound event.
type ConfirmationChannel interface {
	SendConfirmationPrompt(ctx context.Context, telegramID int64) error
}

// Choice is the user's answer to a confirmation prompt.
type Choice int

const (
	// ChoiceOther is any reply that is neither approve nor reject.
	ChoiceOther Choice = iota
	ChoiceApprove
	ChoiceReject
)

func (c Choice) String() string {
	switch c {
	case ChoiceApprove:
		return "approve"
	case ChoiceReject:
		return "reject"
	default:
		return "other"
	}
}

// ChannelContact is a phone number shared by a user through the channel.
type ChannelContact struct {
	TelegramID  int64
	PhoneNumber string
	FullName    string
}
