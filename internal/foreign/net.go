package foreign

import (
	"errors"
	"hemlock/internal/object"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"
)

// address accepts either ("host:port") or (host, port).
func address(ctx object.BuiltinContext, fn string, args []object.Object) (string, bool) {
	switch len(args) {
	case 1:
		addr, err := unpackString(args[0], fn, "address")
		if err != nil {
			throwErr(ctx, err)
			return "", false
		}
		return addr, true
	case 2:
		host, err := unpackString(args[0], fn, "host")
		if err != nil {
			throwErr(ctx, err)
			return "", false
		}
		port, err := unpackInt(args[1], fn, "port")
		if err != nil {
			throwErr(ctx, err)
			return "", false
		}
		return net.JoinHostPort(host, strconv.Itoa(port)), true
	}
	ctx.Throw("%s() expects 1-2 arguments (address) or (host, port)", fn)
	return "", false
}

func fnTcpListen() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			addr, ok := address(ctx, "tcp_listen", args)
			if !ok {
				return object.NULL
			}
			l, err := net.Listen("tcp", addr)
			if err != nil {
				return ctx.Throw("Failed to listen on '%s': %s", addr, err.Error())
			}
			slog.Info("tcp listening", slog.String("addr", l.Addr().String()))
			return object.NewListenerSocket(l)
		},
	}
}

func fnTcpConnect() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			addr, ok := address(ctx, "tcp_connect", args)
			if !ok {
				return object.NULL
			}
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return ctx.Throw("Failed to connect to '%s': %s", addr, err.Error())
			}
			slog.Debug("tcp connected", slog.String("addr", addr))
			return object.NewConnSocket(conn)
		},
	}
}

func socketMethod(ctx object.BuiltinContext, s *object.Socket, name string, args []object.Object) (object.Object, bool) {
	switch name {
	case "accept", "send", "recv", "set_timeout":
		if s.Closed() {
			return ctx.Throw("Cannot %s on closed socket", name), true
		}
	}

	switch name {
	case "accept":
		if !arity(ctx, args, 0, "accept", "") {
			return object.NULL, true
		}
		if s.Listener == nil {
			return ctx.Throw("accept() requires a listening socket"), true
		}
		conn, err := s.Listener.Accept()
		if err != nil {
			return ctx.Throw("accept() failed: %s", err.Error()), true
		}
		slog.Debug("tcp accepted", slog.String("remote", conn.RemoteAddr().String()))
		return object.NewConnSocket(conn), true

	case "send":
		if !arity(ctx, args, 1, "send", "(data)") {
			return object.NULL, true
		}
		if s.Conn == nil {
			return ctx.Throw("send() requires a connected socket"), true
		}
		var data []byte
		switch v := args[0].(type) {
		case *object.String:
			data = []byte(v.Value)
		case *object.Buffer:
			data = v.Data
		default:
			return ctx.Throw("send() expects string or buffer argument"), true
		}
		n, err := s.Conn.Write(data)
		if err != nil {
			return ctx.Throw("send() failed: %s", err.Error()), true
		}
		return object.I32(n), true

	case "recv":
		if !arity(ctx, args, 1, "recv", "(size)") {
			return object.NULL, true
		}
		if s.Conn == nil {
			return ctx.Throw("recv() requires a connected socket"), true
		}
		size, err := unpackInt(args[0], "recv", "size")
		if err != nil {
			return throwErr(ctx, err), true
		}
		if size <= 0 {
			return ctx.Throw("recv() size must be positive"), true
		}
		if size > object.MaxAllocSize {
			return ctx.Throw("recv() size exceeds maximum of %d", object.MaxAllocSize), true
		}
		buf := make([]byte, size)
		n, err := s.Conn.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return ctx.Throw("recv() failed: %s", err.Error()), true
		}
		// an empty buffer signals the peer closed the connection
		return object.NewBufferFrom(buf[:n]), true

	case "set_timeout":
		if !arity(ctx, args, 1, "set_timeout", "(seconds)") {
			return object.NULL, true
		}
		secs, err := unpackFloat(args[0], "set_timeout")
		if err != nil {
			return throwErr(ctx, err), true
		}
		var deadline time.Time
		if secs > 0 {
			deadline = time.Now().Add(time.Duration(secs * float64(time.Second)))
		}
		if s.Conn != nil {
			err = s.Conn.SetDeadline(deadline)
		} else if tl, ok := s.Listener.(*net.TCPListener); ok {
			err = tl.SetDeadline(deadline)
		}
		if err != nil {
			return ctx.Throw("set_timeout() failed: %s", err.Error()), true
		}
		return object.NULL, true

	case "close":
		if !arity(ctx, args, 0, "close", "") {
			return object.NULL, true
		}
		if err := s.Close(); err != nil {
			return ctx.Throw("close() failed: %s", err.Error()), true
		}
		return object.NULL, true
	}
	return nil, false
}
