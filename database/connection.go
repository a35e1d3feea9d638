package database

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DB es la instancia global del pool de conexiones
var DB *pgxpool.Pool

// ConnectDB crea el pool, prueba la conexión y lo deja en DB
func ConnectDB(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	// NUMERIC <-> decimal.Decimal en cada conexión nueva
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var version string
	if err := pool.QueryRow(pingCtx, "SELECT version()").Scan(&version); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Str("version", version).Msg("conectado a la base de datos")

	DB = pool
	return pool, nil
}

// CloseDB cierra el pool de conexiones
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Info().Msg("pool de conexiones cerrado")
	}
}

// GetDB retorna la instancia del pool de conexiones
func GetDB() *pgxpool.Pool {
	return DB
}

// Ping verifica que el pool global responda
func Ping(ctx context.Context) error {
	pool := GetDB()
	if pool == nil {
		return fmt.Errorf("database not connected")
	}
	return pool.Ping(ctx)
}
