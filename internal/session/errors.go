package session

import (
	"errors"
	"fmt"

	"rbxstore-api/internal/roblox"
	"rbxstore-api/internal/workflow"
)

// upstreamError converts a client error into a workflow notice: not_found
// when upstream answered success:false, transient otherwise.
func upstreamError(err error, notFoundMsg string) *workflow.Error {
	if errors.Is(err, roblox.ErrNotFound) {
		msg := notFoundMsg
		var rerr *roblox.ResponseError
		if errors.As(err, &rerr) && rerr.Message != "" {
			msg = rerr.Message
		}
		return workflow.NewError(workflow.KindNotFound, msg)
	}
	return workflow.NewError(workflow.KindTransient, "Could not reach Roblox, please try again")
}

func msgName(v any) string {
	return fmt.Sprintf("%T", v)
}
