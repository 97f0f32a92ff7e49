// Package storage keeps the order history in a SQL database. Both SQLite
// and MySQL are migrated on open.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"digimart/internal/core"
	"digimart/internal/dataset"
)

const timestampLayout = "2006-01-02 15:04:05"

const selectOrders = `SELECT order_id, payment_type, payment_value,
	order_purchase_timestamp, order_delivered_customer_date, delivery_time
	FROM orders`

const insertOrder = `INSERT INTO orders (order_id, payment_type, payment_value,
	order_purchase_timestamp, order_delivered_customer_date, delivery_time)
	VALUES (?, ?, ?, ?, ?, ?)`

// Repository reads and writes the orders table.
type Repository struct {
	db     *sql.DB
	driver string
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs the embedded migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations("sqlite", dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, driver: "sqlite"}, nil
}

// NewMySQLRepository connects to MySQL or MariaDB. dsn may be a driver DSN
// or a mysql:// / mariadb:// URL.
func NewMySQLRepository(ctx context.Context, dsn string) (*Repository, error) {
	driverDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations("mysql", driverDSN); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{db: db, driver: "mysql"}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadOrders reads every order line. Cells are scanned as text and decoded
// with the same rules as the CSV source.
func (r *Repository) LoadOrders(ctx context.Context) ([]core.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrders)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		var cells [6]sql.NullString
		if err := rows.Scan(&cells[0], &cells[1], &cells[2], &cells[3], &cells[4], &cells[5]); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		rec := make([]string, len(cells))
		for i, c := range cells {
			rec[i] = c.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return dataset.ParseRecords(dataset.RequiredColumns, records)
}

// Load implements dataset.Loader.
func (r *Repository) Load(ctx context.Context) (*dataset.Table, error) {
	orders, err := r.LoadOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders from %s: %w", r.driver, err)
	}
	dataset.LogLoaded(ctx, r.driver, orders)
	return dataset.New(orders), nil
}

// ImportOrders replaces the contents of the orders table in one
// transaction. onRow, when set, is called after each inserted row.
func (r *Repository) ImportOrders(ctx context.Context, orders []core.Order, onRow func(n int)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders"); err != nil {
		return fmt.Errorf("clear orders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertOrder)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range orders {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("order %d (%s): %w", i, o.OrderID, err)
		}
		if _, err := stmt.ExecContext(ctx, orderArgs(o)...); err != nil {
			return fmt.Errorf("insert order %s: %w", o.OrderID, err)
		}
		if onRow != nil {
			onRow(i + 1)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "Orders imported", "driver", r.driver, "rows", len(orders))
	return nil
}

func orderArgs(o core.Order) []any {
	var delivered, days any
	if o.Delivered() {
		delivered = o.DeliveredAt.UTC().Format(timestampLayout)
	}
	if o.DeliveryTime != nil {
		days = *o.DeliveryTime
	}
	return []any{
		o.OrderID,
		string(o.PaymentType),
		o.PaymentValue.String(),
		o.PurchasedAt.UTC().Format(timestampLayout),
		delivered,
		days,
	}
}

// toMySQLDSN converts mysql:// and mariadb:// URLs to driver DSNs; anything
// else is passed through. Timestamps are read as text, so parseTime stays off.
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true
	if v := u.Query().Get("timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return "", fmt.Errorf("parse dsn timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if v := u.Query().Get("tls"); v != "" {
		cfg.TLSConfig = v
	}
	return cfg.FormatDSN(), nil
}
