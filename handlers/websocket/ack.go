package websocket

import (
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// previewReply delivers one preview payload back to the client that sent the
// compose event. Failures travel inside the payload (status "error"), so the
// reply never carries a separate error value.
type previewReply func(payload map[string]any)

// composeArgs splits a compose event into its arguments and the client's
// acknowledgement, if it asked for one. The library appends the ack as the
// last argument.
func composeArgs(datas []any) ([]any, previewReply) {
	if len(datas) == 0 {
		return datas, nil
	}
	ack, ok := datas[len(datas)-1].(func([]any, error))
	if !ok || ack == nil {
		return datas, nil
	}
	return datas[:len(datas)-1], func(payload map[string]any) {
		ack([]any{payload}, nil)
	}
}

// sendPreview answers the ack when present and always emits the preview
// event, so listeners that did not pass a callback still see the result.
func sendPreview(socket *socketio.Socket, reply previewReply, payload map[string]any) {
	if reply != nil {
		reply(payload)
	}
	_ = socket.Emit(previewEvent, payload)
}
