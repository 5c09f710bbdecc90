// Package repository реализует хранилище данных на основе PostgreSQL
// для управления пользователями, лицензиями, каталогом загрузок и платежами.
// Предоставляет методы создания, чтения, обновления и агрегирования записей.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с доменными сущностями витрины.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'licenses'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table licenses missing or query error: %w", err)
	}
	return nil
}

// rowScanner объединяет *sql.Row и *sql.Rows для общих функций сканирования.
type rowScanner interface {
	Scan(dest ...any) error
}
