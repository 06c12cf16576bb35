package dataset

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// LoadSQL opens a connection with the given driver ("sqlite3" or "postgres")
// and loads the result of query as a Dataset.
func LoadSQL(ctx context.Context, driver, dsn, query string) (*Dataset, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	defer db.Close()
	return QueryDB(ctx, db, query)
}

// QueryDB runs query on an open connection. Column types are inferred from
// the text form of each value, the same way file loaders do.
func QueryDB(ctx context.Context, db *sqlx.DB, query string) (*Dataset, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	var records [][]string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(records)+1, err)
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = sqlText(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return FromRecords("query", header, records)
}

func sqlText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
