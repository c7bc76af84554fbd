package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jackc/pgx/v5"
)

const (
	localHost   = "127.0.0.1:5432"
	testDB      = "challengeflow_test"
	testRole    = "challengeflow"
	testRolePwd = "challengeflow"
)

// localAdminDSNs lists the superuser logins tried against a local server.
// CHALLENGEFLOW_PG_ADMIN_DSN, when set, is tried first.
func localAdminDSNs() []string {
	user := os.Getenv("USER")
	dsns := []string{
		"postgres://postgres@" + localHost + "/postgres?sslmode=disable",
		"postgres://postgres:postgres@" + localHost + "/postgres?sslmode=disable",
	}
	if user != "" {
		dsns = append(dsns, "postgres://"+user+"@"+localHost+"/postgres?sslmode=disable")
	}
	if admin := os.Getenv("CHALLENGEFLOW_PG_ADMIN_DSN"); admin != "" {
		dsns = append([]string{admin}, dsns...)
	}
	return dsns
}

// InitLocalDatabase recreates the test database on a Postgres server
// listening on localhost and returns a DSN owned by the test role.
func InitLocalDatabase(ctx context.Context) (string, error) {
	if err := exec.CommandContext(ctx, "pg_isready", "-h", "127.0.0.1", "-p", "5432").Run(); err != nil {
		return "", fmt.Errorf("local postgres not ready: %w", err)
	}

	admin, err := connectAny(ctx, localAdminDSNs())
	if err != nil {
		return "", err
	}
	defer admin.Close(ctx)

	role := pgx.Identifier{testRole}.Sanitize()
	db := pgx.Identifier{testDB}.Sanitize()
	steps := []string{
		fmt.Sprintf(`DO $$ BEGIN CREATE ROLE %s WITH LOGIN PASSWORD '%s'; EXCEPTION WHEN duplicate_object THEN NULL; END $$`, role, testRolePwd),
		fmt.Sprintf(`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s' AND pid <> pg_backend_pid()`, testDB),
		"DROP DATABASE IF EXISTS " + db,
		fmt.Sprintf("CREATE DATABASE %s OWNER %s", db, role),
	}
	for _, stmt := range steps {
		if _, err := admin.Exec(ctx, stmt); err != nil {
			return "", fmt.Errorf("init local database: %s: %w", firstWords(stmt), err)
		}
	}

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", testRole, testRolePwd, localHost, testDB), nil
}

func connectAny(ctx context.Context, dsns []string) (*pgx.Conn, error) {
	var errs []error
	for _, dsn := range dsns {
		conn, err := pgx.Connect(ctx, dsn)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("connect as admin: %w", errors.Join(errs...))
}

func firstWords(stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}
