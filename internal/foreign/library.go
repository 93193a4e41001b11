package foreign

import (
	"database/sql"
	"errors"
	"hemlock/internal/object"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"
)

// Library holds the state behind the native builtins of one runtime:
// database handles and the seeded random source.
type Library struct {
	// Exit terminates the process for __exit. Tests replace it.
	Exit func(code int)

	mu    sync.Mutex
	conns map[int64]*sql.DB
	txs   map[int64]*sql.Tx

	rngMu sync.Mutex
	rng   *rand.Rand

	start time.Time
}

func NewLibrary() *Library {
	return &Library{
		Exit:  os.Exit,
		conns: make(map[int64]*sql.DB),
		txs:   make(map[int64]*sql.Tx),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		start: time.Now(),
	}
}

// Builtins returns the library's global functions keyed by name.
func (l *Library) Builtins() map[string]*object.Builtin {
	out := map[string]*object.Builtin{
		"open":        fnIoOpen(),
		"read_line":   fnIoReadLine(),
		"exec":        fnIoExec(),
		"serialize":   fnJsonSerialize(),
		"deserialize": fnJsonDeserialize(),

		"__rand":       l.fnMathRand(),
		"__rand_range": l.fnMathRandRange(),
		"__seed":       l.fnMathSeed(),
		"__min":        fnMathBinary("min", func(a, b float64) float64 { return min(a, b) }),
		"__max":        fnMathBinary("max", func(a, b float64) float64 { return max(a, b) }),
		"__pow":        fnMathBinary("pow", powf),
		"__atan2":      fnMathBinary("atan2", atan2f),
		"__clamp":      fnMathClamp(),

		"__now":     fnTimeNow(),
		"__time_ms": fnTimeMillis(),
		"__sleep":   fnTimeSleep(),
		"__clock":   l.fnTimeClock(),

		"__getenv":   fnEnvGet(),
		"__setenv":   fnEnvSet(),
		"__unsetenv": fnEnvUnset(),
		"__get_pid":  fnEnvPid(),
		"__exit":     l.fnEnvExit(),

		"__exists":        fnFsExists(),
		"__read_file":     fnFsReadFile(),
		"__write_file":    fnFsWriteFile(),
		"__append_file":   fnFsAppendFile(),
		"__remove_file":   fnFsRemoveFile(),
		"__rename":        fnFsRename(),
		"__make_dir":      fnFsMakeDir(),
		"__remove_dir":    fnFsRemoveDir(),
		"__list_dir":      fnFsListDir(),
		"__is_file":       fnFsIsFile(),
		"__is_dir":        fnFsIsDir(),
		"__cwd":           fnFsCwd(),
		"__chdir":         fnFsChdir(),
		"__absolute_path": fnFsAbsolutePath(),

		"__db_connect":  l.fnDbConnect(),
		"__db_query":    l.fnDbQuery(),
		"__db_exec":     l.fnDbExec(),
		"__db_begin":    l.fnDbBegin(),
		"__db_commit":   l.fnDbCommit(),
		"__db_rollback": l.fnDbRollback(),
		"__db_close":    l.fnDbClose(),
		"__tcp_listen":  fnTcpListen(),
		"__tcp_connect": fnTcpConnect(),
	}
	for name, fn := range unaryMath {
		out["__"+name] = fnMathUnary(name, fn)
	}
	for name, b := range out {
		b.Name = name
	}
	return out
}

// Close rolls back open transactions and closes every database handle.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for id, tx := range l.txs {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		delete(l.txs, id)
	}
	for id, db := range l.conns {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(l.conns, id)
	}
	if len(errs) > 0 {
		slog.Warn("errors closing database handles", slog.Int("count", len(errs)))
	}
	return errors.Join(errs...)
}
