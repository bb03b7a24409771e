package feed

import (
	"time"

	"chatroom/internal/domain"
)

// Messages closer together than this from the same sender render as one run
// without a repeated avatar/name header.
const groupWindow = 5 * time.Minute

// GroupedWithPrevious reports whether the message at index i continues the
// previous message's run: same sender, and sent strictly less than five
// minutes after it. A delta of exactly five minutes starts a new run.
func GroupedWithPrevious(msgs []domain.Message, i int) bool {
	if i <= 0 || i >= len(msgs) {
		return false
	}
	prev, cur := msgs[i-1], msgs[i]
	if cur.SenderID != prev.SenderID {
		return false
	}
	return cur.SentAt.Sub(prev.SentAt) < groupWindow
}
