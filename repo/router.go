package repo

import (
	"context"
	"fmt"

	"QuestionnaireBot/model"
)

// Sender delivers one outbound message
type Sender interface {
	Send(ctx context.Context, to model.Recipient, msg model.OutboundMessage) error
}

// ChannelRouter picks a Sender by recipient channel
type ChannelRouter map[string]Sender

func (r ChannelRouter) Send(ctx context.Context, to model.Recipient, msg model.OutboundMessage) error {
	s, ok := r[to.Channel]
	if !ok || s == nil {
		return fmt.Errorf("%w: %q", model.ErrUnknownChannel, to.Channel)
	}
	return s.Send(ctx, to, msg)
}
