package runtime

import (
	"hemlock/internal/object"
	"time"
)

func fnChannelNew() *object.Builtin {
	return &object.Builtin{
		Name: "channel",
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) > 1 {
				return ctx.Throw("channel() expects 0 or 1 arguments, got %d", len(args))
			}
			capacity := int64(0)
			if len(args) == 1 {
				n, ok := object.ToInt64(args[0])
				if !ok || !object.IsInteger(args[0]) {
					return ctx.Throw("channel() capacity must be an integer")
				}
				capacity = n
			}
			if capacity > object.MaxChannelCapacity {
				return ctx.Throw("%s", object.ErrChannelTooLarge.Error())
			}
			ch, err := object.NewChannel(int(capacity))
			if err != nil {
				return ctx.Throw("%s", err.Error())
			}
			return ch
		},
	}
}

// channelMethod implements send, recv, send_timeout, recv_timeout and close.
func (e *Evaluator) channelMethod(ch *object.Channel, name string, args []object.Object) object.Object {
	switch name {
	case "send":
		if len(args) != 1 {
			return e.Throw("send() expects 1 argument")
		}
		e.block()
		err := ch.Send(args[0])
		e.unblock()
		if err != nil {
			return e.throwError(err)
		}
		return object.NULL

	case "recv":
		if len(args) != 0 {
			return e.Throw("recv() expects no arguments")
		}
		e.block()
		v := ch.Recv()
		e.unblock()
		return v

	case "send_timeout":
		if len(args) != 2 {
			return e.Throw("send_timeout() expects 2 arguments (value, timeout_ms)")
		}
		d, ok := millis(args[1])
		if !ok {
			return e.Throw("send_timeout() timeout must be an integer")
		}
		e.block()
		sent, err := ch.SendTimeout(args[0], d)
		e.unblock()
		if err != nil {
			return e.throwError(err)
		}
		return object.Bool(sent)

	case "recv_timeout":
		if len(args) != 1 {
			return e.Throw("recv_timeout() expects 1 argument (timeout_ms)")
		}
		d, ok := millis(args[0])
		if !ok {
			return e.Throw("recv_timeout() timeout must be an integer")
		}
		e.block()
		v, _ := ch.RecvTimeout(d)
		e.unblock()
		return v

	case "close":
		if len(args) != 0 {
			return e.Throw("close() expects no arguments")
		}
		ch.Close()
		return object.NULL
	}
	return e.Throw("Unknown method '%s' on channel", name)
}

func millis(v object.Object) (time.Duration, bool) {
	if !object.IsInteger(v) {
		return 0, false
	}
	n, _ := object.ToInt64(v)
	return time.Duration(n) * time.Millisecond, true
}
