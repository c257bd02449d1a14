// seed_users da de alta usuarios internos desde un CSV exportado por el portal admin.
//
// Uso: go run ./cmd/seed_users [ruta/usuarios.csv]
// Por defecto busca usuarios.csv en el directorio actual.
// Columnas: email,nombre,rol,password. La primera fila es encabezado.
// Si el archivo viene en ISO-8859-1 (export de Excel) se convierte a UTF-8.
// Los emails ya registrados se omiten.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/postgres"
	"github.com/jhoicas/leadflow-api/pkg/config"
)

func main() {
	csvPath := "usuarios.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	users, err := readUsers(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.PoolOptions{MaxConns: 2})
	if err != nil {
		fmt.Fprintf(os.Stderr, "PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	repo := postgres.NewUserRepository(pool)

	var created, skipped int
	for _, u := range users {
		err := repo.Create(ctx, u)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			skipped++
		case err != nil:
			fmt.Fprintf(os.Stderr, "Crear %s: %v\n", u.Email, err)
			pool.Close()
			os.Exit(1)
		default:
			created++
		}
	}
	fmt.Printf("Usuarios creados: %d, omitidos (ya existían): %d\n", created, skipped)
}

func readUsers(path string) ([]*entity.User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		in = transform.NewReader(in, charmap.ISO8859_1.NewDecoder())
	}

	r := csv.NewReader(in)
	r.FieldsPerRecord = 4
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s no tiene filas de datos", path)
	}

	now := time.Now().UTC()
	out := make([]*entity.User, 0, len(rows)-1)
	for i, row := range rows[1:] {
		email := strings.ToLower(strings.TrimSpace(row[0]))
		name := strings.TrimSpace(row[1])
		role := strings.TrimSpace(row[2])
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("fila %d: email inválido %q", i+2, row[0])
		}
		if !entity.ValidRole(role) {
			return nil, fmt.Errorf("fila %d: rol %q no soportado", i+2, role)
		}
		if len(row[3]) < 8 {
			return nil, fmt.Errorf("fila %d: password de menos de 8 caracteres", i+2)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(row[3]), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("fila %d: %w", i+2, err)
		}
		out = append(out, &entity.User{
			ID: uuid.NewString(), Email: email, PasswordHash: string(hash), Name: name,
			Role: role, Status: "active", CreatedAt: now, UpdatedAt: now,
		})
	}
	return out, nil
}
