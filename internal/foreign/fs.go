package foreign

import (
	"errors"
	"hemlock/internal/object"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// pathBuiltin wraps the common shape of the filesystem builtins: a string
// path first, then extra arguments.
func pathBuiltin(name, usage string, extra int, fn func(ctx object.BuiltinContext, path string, args []object.Object) object.Object) *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1+extra, name, usage) {
				return object.NULL
			}
			path, err := unpackString(args[0], name, "path")
			if err != nil {
				return throwErr(ctx, err)
			}
			return fn(ctx, path, args[1:])
		},
	}
}

func fnFsExists() *object.Builtin {
	return pathBuiltin("exists", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		_, err := os.Stat(path)
		return object.Bool(err == nil)
	})
}

func fnFsReadFile() *object.Builtin {
	return pathBuiltin("read_file", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		data, err := os.ReadFile(path)
		if err != nil {
			return ctx.Throw("Failed to read file '%s': %s", path, reason(err))
		}
		return object.NewString(string(data))
	})
}

func fnFsWriteFile() *object.Builtin {
	return pathBuiltin("write_file", "(path, content)", 1, func(ctx object.BuiltinContext, path string, args []object.Object) object.Object {
		content, err := unpackString(args[0], "write_file", "content")
		if err != nil {
			return throwErr(ctx, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return ctx.Throw("Failed to write file '%s': %s", path, reason(err))
		}
		return object.NULL
	})
}

func fnFsAppendFile() *object.Builtin {
	return pathBuiltin("append_file", "(path, content)", 1, func(ctx object.BuiltinContext, path string, args []object.Object) object.Object {
		content, err := unpackString(args[0], "append_file", "content")
		if err != nil {
			return throwErr(ctx, err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			return ctx.Throw("Failed to open file '%s': %s", path, reason(err))
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return ctx.Throw("Failed to append to file '%s': %s", path, reason(err))
		}
		return object.NULL
	})
}

func fnFsRemoveFile() *object.Builtin {
	return pathBuiltin("remove_file", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			return ctx.Throw("Failed to remove file '%s': is a directory", path)
		}
		if err := os.Remove(path); err != nil {
			return ctx.Throw("Failed to remove file '%s': %s", path, reason(err))
		}
		return object.NULL
	})
}

func fnFsRename() *object.Builtin {
	return pathBuiltin("rename", "(old_path, new_path)", 1, func(ctx object.BuiltinContext, path string, args []object.Object) object.Object {
		to, err := unpackString(args[0], "rename", "new path")
		if err != nil {
			return throwErr(ctx, err)
		}
		if err := os.Rename(path, to); err != nil {
			return ctx.Throw("Failed to rename '%s' to '%s': %s", path, to, reason(err))
		}
		return object.NULL
	})
}

// __make_dir(path[, mode]) creates parents as needed.
func fnFsMakeDir() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) < 1 || len(args) > 2 {
				return ctx.Throw("make_dir() expects 1-2 arguments (path, [mode])")
			}
			path, err := unpackString(args[0], "make_dir", "path")
			if err != nil {
				return throwErr(ctx, err)
			}
			mode := fs.FileMode(0755)
			if len(args) == 2 {
				m, err := unpackInt(args[1], "make_dir", "mode")
				if err != nil {
					return throwErr(ctx, err)
				}
				mode = fs.FileMode(m)
			}
			if err := os.MkdirAll(path, mode); err != nil {
				return ctx.Throw("Failed to create directory '%s': %s", path, reason(err))
			}
			return object.NULL
		},
	}
}

func fnFsRemoveDir() *object.Builtin {
	return pathBuiltin("remove_dir", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		if err := os.Remove(path); err != nil {
			return ctx.Throw("Failed to remove directory '%s': %s", path, reason(err))
		}
		return object.NULL
	})
}

// __list_dir returns entry names sorted, without "." and "..".
func fnFsListDir() *object.Builtin {
	return pathBuiltin("list_dir", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		entries, err := os.ReadDir(path)
		if err != nil {
			return ctx.Throw("Failed to open directory '%s': %s", path, reason(err))
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		sort.Strings(names)
		return stringArray(names)
	})
}

func fnFsIsFile() *object.Builtin {
	return pathBuiltin("is_file", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		info, err := os.Stat(path)
		return object.Bool(err == nil && info.Mode().IsRegular())
	})
}

func fnFsIsDir() *object.Builtin {
	return pathBuiltin("is_dir", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		info, err := os.Stat(path)
		return object.Bool(err == nil && info.IsDir())
	})
}

func fnFsCwd() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 0, "cwd", "") {
				return object.NULL
			}
			dir, err := os.Getwd()
			if err != nil {
				return ctx.Throw("Failed to get current directory: %s", reason(err))
			}
			return object.NewString(dir)
		},
	}
}

func fnFsChdir() *object.Builtin {
	return pathBuiltin("chdir", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		if err := os.Chdir(path); err != nil {
			return ctx.Throw("Failed to change directory to '%s': %s", path, reason(err))
		}
		return object.NULL
	})
}

// __absolute_path resolves symlinks, so the path must exist.
func fnFsAbsolutePath() *object.Builtin {
	return pathBuiltin("absolute_path", "(path)", 0, func(ctx object.BuiltinContext, path string, _ []object.Object) object.Object {
		abs, err := filepath.Abs(path)
		if err == nil {
			abs, err = filepath.EvalSymlinks(abs)
		}
		if err != nil {
			return ctx.Throw("Failed to resolve path '%s': %s", path, reason(err))
		}
		return object.NewString(abs)
	})
}

// reason strips the op and path from an *fs.PathError so messages read like
// strerror output.
func reason(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		return le.Err.Error()
	}
	return err.Error()
}
