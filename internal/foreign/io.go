package foreign

import (
	"bytes"
	"errors"
	"fmt"
	"hemlock/internal/object"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// openFlags maps fopen style modes to os.OpenFile flags.
func openFlags(mode string) (int, error) {
	switch strings.ReplaceAll(mode, "b", "") {
	case "r":
		return os.O_RDONLY, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "r+":
		return os.O_RDWR, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
	}
	return 0, fmt.Errorf("invalid file mode '%s'", mode)
}

func fnIoOpen() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) < 1 || len(args) > 2 {
				return ctx.Throw("open() expects 1-2 arguments (path, [mode])")
			}
			path, err := unpackString(args[0], "open", "path")
			if err != nil {
				return throwErr(ctx, err)
			}
			mode := "r"
			if len(args) == 2 {
				if mode, err = unpackString(args[1], "open", "mode"); err != nil {
					return throwErr(ctx, err)
				}
			}
			flags, err := openFlags(mode)
			if err != nil {
				return ctx.Throw("Failed to open '%s' with mode '%s': %s", path, mode, err.Error())
			}
			f, err := os.OpenFile(path, flags, 0644)
			if err != nil {
				return ctx.Throw("Failed to open '%s' with mode '%s': %s", path, mode, reason(err))
			}
			slog.Debug("file opened", slog.String("path", path), slog.String("mode", mode))
			return object.NewFile(path, mode, f)
		},
	}
}

func fnIoReadLine() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 0, "read_line", "") {
				return object.NULL
			}
			line, err := ctx.Stdin().ReadString('\n')
			if err != nil && line == "" {
				if errors.Is(err, io.EOF) {
					return object.NULL
				}
				return ctx.Throw("read_line() failed: %s", err.Error())
			}
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			return object.NewString(line)
		},
	}
}

// exec runs a shell command and returns { output, exit_code }. Only
// standard output is captured.
func fnIoExec() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "exec", "(command string)") {
				return object.NULL
			}
			command, err := unpackString(args[0], "exec", "argument")
			if err != nil {
				return throwErr(ctx, err)
			}

			var stdout bytes.Buffer
			cmd := exec.Command("/bin/sh", "-c", command)
			cmd.Stdout = &stdout
			cmd.Stderr = ctx.Stderr()
			code := 0
			if err := cmd.Run(); err != nil {
				var exitErr *exec.ExitError
				if !errors.As(err, &exitErr) {
					return ctx.Throw("Failed to execute command '%s': %s", command, err.Error())
				}
				code = exitErr.ExitCode()
			}
			slog.Debug("command executed", slog.String("command", command), slog.Int("exit_code", code))

			result := object.NewRecord()
			out := object.NewString(stdout.String())
			result.Set("output", out)
			object.Release(out)
			result.Set("exit_code", object.I32(code))
			return result
		},
	}
}

func fileMethod(ctx object.BuiltinContext, f *object.File, name string, args []object.Object) (object.Object, bool) {
	switch name {
	case "read", "read_bytes", "write", "write_bytes", "seek", "tell":
		if f.Closed {
			verb := "read from"
			if strings.HasPrefix(name, "write") {
				verb = "write to"
			} else if name == "seek" || name == "tell" {
				verb = name
			}
			return ctx.Throw("Cannot %s closed file '%s'", verb, f.Path), true
		}
	}

	switch name {
	case "read":
		if len(args) > 1 {
			return ctx.Throw("read() expects 0-1 arguments"), true
		}
		if len(args) == 0 {
			data, err := io.ReadAll(f.Handle)
			if err != nil {
				return ctx.Throw("Read error on file '%s': %s", f.Path, reason(err)), true
			}
			return object.NewString(string(data)), true
		}
		n, err := unpackInt(args[0], "read", "size")
		if err != nil {
			return throwErr(ctx, err), true
		}
		data, err := readN(f, n)
		if err != nil {
			return ctx.Throw("Read error on file '%s': %s", f.Path, reason(err)), true
		}
		return object.NewString(string(data)), true

	case "read_bytes":
		if len(args) != 1 || !object.IsInteger(args[0]) {
			return ctx.Throw("read_bytes() expects 1 integer argument (size)"), true
		}
		n, _ := object.ToInt64(args[0])
		data, err := readN(f, int(n))
		if err != nil {
			return ctx.Throw("Read error on file '%s': %s", f.Path, reason(err)), true
		}
		return object.NewBufferFrom(data), true

	case "write", "write_bytes":
		if !arity(ctx, args, 1, name, "(data)") {
			return object.NULL, true
		}
		if strings.HasPrefix(f.Mode, "r") && !strings.Contains(f.Mode, "+") {
			return ctx.Throw("Cannot write to file '%s' opened in read-only mode", f.Path), true
		}
		var data []byte
		switch v := args[0].(type) {
		case *object.String:
			if name == "write_bytes" {
				return ctx.Throw("write_bytes() expects buffer argument"), true
			}
			data = []byte(v.Value)
		case *object.Buffer:
			if name == "write" {
				return ctx.Throw("write() expects string argument"), true
			}
			data = v.Data
		default:
			if name == "write" {
				return ctx.Throw("write() expects string argument"), true
			}
			return ctx.Throw("write_bytes() expects buffer argument"), true
		}
		n, err := f.Handle.Write(data)
		if err != nil {
			return ctx.Throw("Write error on file '%s': %s", f.Path, reason(err)), true
		}
		return object.I32(n), true

	case "seek":
		if len(args) != 1 || !object.IsInteger(args[0]) {
			return ctx.Throw("seek() expects 1 integer argument (position)"), true
		}
		pos, _ := object.ToInt64(args[0])
		off, err := f.Handle.Seek(pos, io.SeekStart)
		if err != nil {
			return ctx.Throw("Seek error on file '%s': %s", f.Path, reason(err)), true
		}
		return object.I32(off), true

	case "tell":
		if !arity(ctx, args, 0, "tell", "") {
			return object.NULL, true
		}
		off, err := f.Handle.Seek(0, io.SeekCurrent)
		if err != nil {
			return ctx.Throw("Tell error on file '%s': %s", f.Path, reason(err)), true
		}
		return object.I32(off), true

	case "close":
		if !arity(ctx, args, 0, "close", "") {
			return object.NULL, true
		}
		if err := f.Close(); err != nil {
			slog.Warn("error closing file", slog.String("path", f.Path), slog.Any("error", err))
		}
		return object.NULL, true
	}
	return nil, false
}

// readN reads up to n bytes, stopping early at end of file.
func readN(f *object.File, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(f.Handle, int64(n)))
}
