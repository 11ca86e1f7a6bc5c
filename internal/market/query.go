package market

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/timada/market/internal/eventstore"
)

// QueryMigrations create the read model used by the search page.
var QueryMigrations = []eventstore.Migration{
	{
		Version: "market_2025_08_16_04_17",
		Up: `
CREATE TABLE IF NOT EXISTS product (
	id TEXT PRIMARY KEY NOT NULL,
	name TEXT NOT NULL,
	state TEXT NOT NULL,
	failed_reason TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_created ON product(created_at, id);`,
	},
}

type QueryProduct struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	State        ProductState `json:"state"`
	FailedReason string       `json:"failed_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type queryCursor struct {
	I string `json:"i"`
	C int64  `json:"c"`
}

func (p QueryProduct) cursor() (string, error) {
	return eventstore.EncodeCursor(queryCursor{I: p.ID, C: p.CreatedAt.UnixMilli()})
}

type projection struct {
	db *sql.DB
}

func (p *projection) createRequested(ctx context.Context, ev eventstore.Event) error {
	var d CreateRequested
	if err := ev.Decode(&d); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO product (id, name, state, failed_reason, created_at)
	VALUES (?, ?, ?, '', ?)
	ON CONFLICT(id) DO NOTHING`,
		ev.AggregateID, d.Name, string(d.State), ev.Timestamp.UnixMilli())
	return err
}

func (p *projection) created(ctx context.Context, ev eventstore.Event) error {
	var d Created
	if err := ev.Decode(&d); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, "UPDATE product SET state = ? WHERE id = ?", string(d.State), ev.AggregateID)
	return err
}

func (p *projection) createFailed(ctx context.Context, ev eventstore.Event) error {
	var d CreateFailed
	if err := ev.Decode(&d); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx, "UPDATE product SET state = ?, failed_reason = ? WHERE id = ?",
		string(d.State), d.FailedReason, ev.AggregateID)
	return err
}

// search pages through products whose name contains query, newest first.
func (p *projection) search(ctx context.Context, query string, args eventstore.Args) (eventstore.ReadResult[QueryProduct], error) {
	var res eventstore.ReadResult[QueryProduct]

	limit, from := args.Limit()
	backward := args.IsBackward()

	var (
		where  []string
		params []any
	)
	if q := strings.TrimSpace(query); q != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		params = append(params, "%"+escapeLike(q)+"%")
	}
	if from != "" {
		var c queryCursor
		if err := eventstore.DecodeCursor(from, &c); err != nil {
			return res, err
		}
		if backward {
			where = append(where, "(created_at > ? OR (created_at = ? AND id > ?))")
		} else {
			where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		}
		params = append(params, c.C, c.C, c.I)
	}

	order := "created_at DESC, id DESC"
	if backward {
		order = "created_at ASC, id ASC"
	}
	stmt := "SELECT id, name, state, failed_reason, created_at FROM product"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY " + order + " LIMIT ?"
	params = append(params, limit+1)

	rows, err := p.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return res, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var items []QueryProduct
	for rows.Next() {
		var (
			it    QueryProduct
			state string
			ts    int64
		)
		if err := rows.Scan(&it.ID, &it.Name, &state, &it.FailedReason, &ts); err != nil {
			return res, err
		}
		it.State = ProductState(state)
		it.CreatedAt = time.UnixMilli(ts)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return res, err
	}

	more := len(items) > limit
	if more {
		items = items[:limit]
	}
	if backward {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		res.PageInfo.HasPreviousPage = more
		res.PageInfo.HasNextPage = from != ""
	} else {
		res.PageInfo.HasNextPage = more
		res.PageInfo.HasPreviousPage = from != ""
	}

	res.Edges = make([]eventstore.Edge[QueryProduct], 0, len(items))
	for _, it := range items {
		c, err := it.cursor()
		if err != nil {
			return res, err
		}
		res.Edges = append(res.Edges, eventstore.Edge[QueryProduct]{Cursor: c, Node: it})
	}
	if n := len(res.Edges); n > 0 {
		res.PageInfo.StartCursor = res.Edges[0].Cursor
		res.PageInfo.EndCursor = res.Edges[n-1].Cursor
	}
	return res, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
