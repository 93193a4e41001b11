package foreign

import (
	"database/sql"
	"fmt"
	"hemlock/internal/object"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

func handleArg(ctx object.BuiltinContext, fn string, v object.Object) (int64, bool) {
	if !object.IsInteger(v) {
		ctx.Throw("%s() handle must be an integer", fn)
		return 0, false
	}
	id, _ := object.ToInt64(v)
	return id, true
}

// lookup resolves a connection or transaction handle.
func (l *Library) lookup(id int64) (querier, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx, ok := l.txs[id]; ok {
		return tx, true
	}
	if db, ok := l.conns[id]; ok {
		return db, true
	}
	return nil, false
}

func (l *Library) fnDbConnect() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 2, "db_connect", "(driver, dsn)") {
				return object.NULL
			}
			driver, err := unpackString(args[0], "db_connect", "driver")
			if err != nil {
				return throwErr(ctx, err)
			}
			dsn, err := unpackString(args[1], "db_connect", "dsn")
			if err != nil {
				return throwErr(ctx, err)
			}

			db, err := sql.Open(driver, dsn)
			if err != nil {
				return ctx.Throw("failed to open connection: %v", err)
			}
			if driver == "sqlite3" {
				// every pooled connection to :memory: would be its own database
				db.SetMaxOpenConns(1)
			}
			if err := db.Ping(); err != nil {
				db.Close()
				return ctx.Throw("failed to ping database: %v", err)
			}

			id := ctx.NextHandleID()
			l.mu.Lock()
			l.conns[id] = db
			l.mu.Unlock()
			slog.Info("database connected", slog.String("driver", driver), slog.Int64("handle", id))
			return object.I64(id)
		},
	}
}

func (l *Library) statement(ctx object.BuiltinContext, fn string, args []object.Object) (querier, string, []any, bool) {
	if len(args) < 2 {
		ctx.Throw("%s() expects at least 2 arguments (handle, sql, ...params)", fn)
		return nil, "", nil, false
	}
	id, ok := handleArg(ctx, fn, args[0])
	if !ok {
		return nil, "", nil, false
	}
	query, err := unpackString(args[1], fn, "sql")
	if err != nil {
		throwErr(ctx, err)
		return nil, "", nil, false
	}
	q, ok := l.lookup(id)
	if !ok {
		ctx.Throw("invalid connection handle")
		return nil, "", nil, false
	}
	params := make([]any, 0, len(args)-2)
	for _, a := range args[2:] {
		p, err := sqlParam(a)
		if err != nil {
			throwErr(ctx, err)
			return nil, "", nil, false
		}
		params = append(params, p)
	}
	return q, query, params, true
}

func (l *Library) fnDbQuery() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			q, query, params, ok := l.statement(ctx, "db_query", args)
			if !ok {
				return object.NULL
			}
			rows, err := q.Query(query, params...)
			if err != nil {
				return ctx.Throw("query failed: %v", err)
			}
			defer rows.Close()

			out, err := renderRows(rows)
			if err != nil {
				return ctx.Throw("query failed: %v", err)
			}
			return out
		},
	}
}

func (l *Library) fnDbExec() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			q, query, params, ok := l.statement(ctx, "db_exec", args)
			if !ok {
				return object.NULL
			}
			result, err := q.Exec(query, params...)
			if err != nil {
				return ctx.Throw("exec failed: %v", err)
			}

			// postgres does not support LastInsertId
			affected, _ := result.RowsAffected()
			lastID, _ := result.LastInsertId()
			rec := object.NewRecord()
			rec.Set("rows_affected", object.I64(affected))
			rec.Set("last_insert_id", object.I64(lastID))
			return rec
		},
	}
}

func (l *Library) fnDbBegin() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "db_begin", "(handle)") {
				return object.NULL
			}
			id, ok := handleArg(ctx, "db_begin", args[0])
			if !ok {
				return object.NULL
			}
			l.mu.Lock()
			db, ok := l.conns[id]
			l.mu.Unlock()
			if !ok {
				return ctx.Throw("invalid connection handle")
			}
			tx, err := db.Begin()
			if err != nil {
				return ctx.Throw("failed to begin transaction: %v", err)
			}
			txID := ctx.NextHandleID()
			l.mu.Lock()
			l.txs[txID] = tx
			l.mu.Unlock()
			slog.Debug("transaction started", slog.Int64("handle", id), slog.Int64("tx", txID))
			return object.I64(txID)
		},
	}
}

func (l *Library) finishTx(ctx object.BuiltinContext, fn string, args []object.Object, commit bool) object.Object {
	if !arity(ctx, args, 1, fn, "(transaction)") {
		return object.NULL
	}
	id, ok := handleArg(ctx, fn, args[0])
	if !ok {
		return object.NULL
	}
	l.mu.Lock()
	tx, ok := l.txs[id]
	delete(l.txs, id)
	l.mu.Unlock()
	if !ok {
		return ctx.Throw("invalid transaction handle")
	}

	var err error
	if commit {
		err = tx.Commit()
	} else {
		err = tx.Rollback()
	}
	if err != nil {
		verb := "rollback"
		if commit {
			verb = "commit"
		}
		return ctx.Throw("failed to %s transaction: %v", verb, err)
	}
	return object.NULL
}

func (l *Library) fnDbCommit() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			return l.finishTx(ctx, "db_commit", args, true)
		},
	}
}

func (l *Library) fnDbRollback() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			return l.finishTx(ctx, "db_rollback", args, false)
		},
	}
}

func (l *Library) fnDbClose() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "db_close", "(handle)") {
				return object.NULL
			}
			id, ok := handleArg(ctx, "db_close", args[0])
			if !ok {
				return object.NULL
			}
			l.mu.Lock()
			db, ok := l.conns[id]
			delete(l.conns, id)
			l.mu.Unlock()
			if !ok {
				return ctx.Throw("invalid connection handle")
			}
			if err := db.Close(); err != nil {
				return ctx.Throw("failed to close connection: %v", err)
			}
			slog.Info("database closed", slog.Int64("handle", id))
			return object.NULL
		},
	}
}

// sqlParam converts a statement argument to a driver value.
func sqlParam(v object.Object) (any, error) {
	switch v := v.(type) {
	case object.Null:
		return nil, nil
	case object.Bool:
		return bool(v), nil
	case object.U64:
		return int64(v), nil
	case *object.String:
		return v.Value, nil
	case *object.Buffer:
		return v.Data, nil
	case object.Rune:
		return string(rune(v)), nil
	}
	switch {
	case object.IsInteger(v):
		i, _ := object.ToInt64(v)
		return i, nil
	case object.IsFloat(v):
		f, _ := object.ToFloat64(v)
		return f, nil
	}
	return nil, fmt.Errorf("cannot bind %s as a query parameter", object.TypeName(v))
}

func renderRows(rows *sql.Rows) (object.Object, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, _ := rows.ColumnTypes()

	var out []object.Object
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			object.Release(object.NewArray(out))
			return nil, err
		}

		row := object.NewRecord()
		for i, col := range columns {
			var typeName string
			if i < len(types) {
				typeName = types[i].DatabaseTypeName()
			}
			v := mapValue(values[i], typeName)
			row.Set(col, v)
			object.Release(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		object.Release(object.NewArray(out))
		return nil, err
	}
	return object.NewArray(out), nil
}

// mapValue converts a scanned column to an owned value.
func mapValue(v any, dbType string) object.Object {
	switch x := v.(type) {
	case nil:
		return object.NULL
	case int64:
		return object.I64(x)
	case float64:
		return object.F64(x)
	case []byte:
		if strings.Contains(strings.ToUpper(dbType), "BLOB") || strings.HasSuffix(strings.ToUpper(dbType), "BINARY") || dbType == "BYTEA" {
			data := make([]byte, len(x))
			copy(data, x)
			return object.NewBufferFrom(data)
		}
		return object.NewString(string(x))
	case string:
		return object.NewString(x)
	case bool:
		return object.Bool(x)
	case time.Time:
		return object.NewString(x.Format(time.RFC3339))
	default:
		return object.NewString(fmt.Sprintf("%v", v))
	}
}
