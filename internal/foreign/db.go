package foreign

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mika/internal/object"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const CONNECTION_OBJ = "DB_CONNECTION"

// Connection is a script-visible database handle. It is a foreign handle:
// member access and calls on it go straight to Go.
type Connection struct {
	Driver string

	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx
}

func (c *Connection) Type() object.ObjectType { return CONNECTION_OBJ }
func (c *Connection) Inspect() string {
	return fmt.Sprintf("<db connection %s>", c.Driver)
}

func (c *Connection) GetMember(name string) (object.Object, error) {
	switch name {
	case "driver":
		return str(c.Driver), nil
	case "inTransaction":
		c.mu.Lock()
		defer c.mu.Unlock()
		return object.NativeBool(c.tx != nil), nil
	}
	if fn, ok := connectionMethods[name]; ok {
		return native(name, object.VariadicArity, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			return fn(c, args)
		}), nil
	}
	return nil, object.NewPropertyError("Undefined property '%s'.", name)
}

func (c *Connection) SetMember(name string, value object.Object) error {
	return object.NewPropertyError("Connection property '%s' is read-only.", name)
}

func (c *Connection) Invoke(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
	return nil, object.NewTypeError("Can only call functions and classes, got '%s'.", c.Inspect())
}

type connectionMethod func(c *Connection, args []object.Object) (object.Object, error)

var connectionMethods = map[string]connectionMethod{
	"query":    (*Connection).query,
	"exec":     (*Connection).exec,
	"begin":    (*Connection).begin,
	"commit":   (*Connection).commit,
	"rollback": (*Connection).rollback,
	"close":    (*Connection).close,
}

// Connect opens and pings a database with one of the linked drivers:
// sqlite3, mysql or postgres.
func Connect(dsn, driver string) (*Connection, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, object.NewError("failed to open connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, object.NewError("failed to ping database: %v", err)
	}
	slog.Debug("db connection opened", slog.String("driver", driver))
	return &Connection{Driver: driver, db: db}, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

func (c *Connection) target() (queryer, error) {
	if c.db == nil {
		return nil, object.NewError("connection is closed")
	}
	if c.tx != nil {
		return c.tx, nil
	}
	return c.db, nil
}

func (c *Connection) query(args []object.Object) (object.Object, error) {
	q, err := stringArg("query", args, 0)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	target, err := c.target()
	if err != nil {
		return nil, err
	}

	rows, qerr := target.Query(q, sqlParams(args[1:])...)
	if qerr != nil {
		return nil, object.NewError("query failed: %v", qerr)
	}
	defer rows.Close()
	return renderRows(rows)
}

func (c *Connection) exec(args []object.Object) (object.Object, error) {
	q, err := stringArg("exec", args, 0)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	target, err := c.target()
	if err != nil {
		return nil, err
	}

	result, xerr := target.Exec(q, sqlParams(args[1:])...)
	if xerr != nil {
		return nil, object.NewError("exec failed: %v", xerr)
	}
	affected, _ := result.RowsAffected()
	lastID, _ := result.LastInsertId()

	m := object.NewMap()
	m.Pairs["rowsAffected"] = number(float64(affected))
	m.Pairs["lastInsertId"] = number(float64(lastID))
	return m, nil
}

func (c *Connection) begin(args []object.Object) (object.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, object.NewError("connection is closed")
	}
	if c.tx != nil {
		return nil, object.NewError("transaction already in progress")
	}
	tx, err := c.db.Begin()
	if err != nil {
		return nil, object.NewError("failed to begin transaction: %v", err)
	}
	c.tx = tx
	return c, nil
}

func (c *Connection) commit(args []object.Object) (object.Object, error) {
	return c.finish("commit", (*sql.Tx).Commit)
}

func (c *Connection) rollback(args []object.Object) (object.Object, error) {
	return c.finish("rollback", (*sql.Tx).Rollback)
}

func (c *Connection) finish(op string, fn func(*sql.Tx) error) (object.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return nil, object.NewError("no transaction to %s", op)
	}
	err := fn(c.tx)
	c.tx = nil
	if err != nil {
		return nil, object.NewError("failed to %s transaction: %v", op, err)
	}
	return c, nil
}

func (c *Connection) close(args []object.Object) (object.Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		c.tx.Rollback()
		c.tx = nil
	}
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		if err != nil {
			return nil, object.NewError("failed to close connection: %v", err)
		}
	}
	return object.NULL, nil
}

func sqlParams(args []object.Object) []any {
	params := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *object.Number:
			if v.IsIntegral() {
				params[i] = int64(v.Value)
			} else {
				params[i] = v.Value
			}
		case *object.String:
			params[i] = v.Value
		case *object.Boolean:
			params[i] = v.Value
		case *object.Null, *object.Undefined:
			params[i] = nil
		default:
			params[i] = arg.Inspect()
		}
	}
	return params
}

// renderRows turns a result set into a list of maps keyed by column name.
func renderRows(rows *sql.Rows) (object.Object, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, object.NewError("reading columns: %v", err)
	}
	result := []object.Object{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, object.NewError("scanning row: %v", err)
		}
		row := object.NewMap()
		for i, col := range columns {
			row.Pairs[col] = mapValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, object.NewError("reading rows: %v", err)
	}
	return &object.List{Elements: result}, nil
}

func mapValue(v any) object.Object {
	switch x := v.(type) {
	case nil:
		return object.NULL
	case int64:
		return number(float64(x))
	case float64:
		return number(x)
	case []byte:
		return str(string(x))
	case string:
		return str(x)
	case bool:
		return object.NativeBool(x)
	case time.Time:
		return str(x.Format(time.RFC3339))
	}
	return str(fmt.Sprintf("%v", v))
}

func connectionArg(fn string, args []object.Object) (*Connection, error) {
	if len(args) == 0 {
		return nil, object.NewArityError(fn, 1, 0)
	}
	c, ok := args[0].(*Connection)
	if !ok {
		return nil, object.NewTypeError("argument 1 to `%s` must be a connection, got '%s'.", fn, object.TypeName(args[0]))
	}
	return c, nil
}

// dbNamespace exposes the connection methods as functions taking the
// connection first, alongside connect.
func dbNamespace() *object.Instance {
	m := members(native("connect", 2, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
		dsn, err := stringArg("connect", args, 0)
		if err != nil {
			return nil, err
		}
		driver, err := stringArg("connect", args, 1)
		if err != nil {
			return nil, err
		}
		conn, err := Connect(dsn, driver)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}))
	for name, method := range connectionMethods {
		name, method := name, method
		m[name] = native(name, object.VariadicArity, func(ctx object.EvaluatorContext, args []object.Object, kwargs map[string]object.Object) (object.Object, error) {
			c, err := connectionArg(name, args)
			if err != nil {
				return nil, err
			}
			return method(c, args[1:])
		})
	}
	return namespace("db", m)
}
