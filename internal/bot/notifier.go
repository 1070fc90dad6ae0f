package bot

import (
	"context"
	"fmt"
)

// ChannelNotifier delivers claim-resolution outcomes to the claimant. The
// deposit service calls it only after the resolving transaction committed.
type ChannelNotifier struct {
	channel Channel
}

func NewNotifier(channel Channel) *ChannelNotifier {
	return &ChannelNotifier{channel: channel}
}

func (n *ChannelNotifier) ClaimApproved(ctx context.Context, userID int64, amount int64) error {
	text := fmt.Sprintf(
		"🎉 Congratulations! Your order has been approved!\n💰 %d Diamonds have been added to your balance.",
		amount)
	return n.channel.SendText(ctx, userID, text, nil)
}

func (n *ChannelNotifier) ClaimDeclined(ctx context.Context, userID int64) error {
	return n.channel.SendText(ctx, userID,
		"❌ Your payment has been declined. Please contact support for more information.", nil)
}
