// Package scheduler turns sequence definitions into durable step
// executions and drives them through their delivery lifecycle.
package scheduler

import (
	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/engagement"
	"github.com/leadforge/leadforge/internal/types"
)

// EvaluateCondition decides whether a step should send given the
// prospect's engagement status. When the step should not send, the
// returned reason explains which milestone preempted it.
func EvaluateCondition(condition database.ConditionType, status engagement.Status) (send bool, reason string, err error) {
	switch condition {
	case database.ConditionAlways:
		return true, "", nil
	case database.ConditionNoReply:
		if status.Replied {
			return false, "prospect already replied", nil
		}
		return true, "", nil
	case database.ConditionNoMeeting:
		if status.MeetingBooked {
			return false, "meeting already booked", nil
		}
		return true, "", nil
	case database.ConditionNoSale:
		if status.DealClosed {
			return false, "deal already closed", nil
		}
		return true, "", nil
	case database.ConditionNoOpen:
		if status.MessageOpened {
			return false, "message already opened", nil
		}
		return true, "", nil
	default:
		return false, "", types.NewError(types.CONDITION_EVAL_FAILED,
			"unknown condition type: "+string(condition))
	}
}
