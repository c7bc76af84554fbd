package infra

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// defaultImage is overridden by CHALLENGEFLOW_TEST_PG_IMAGE.
const defaultImage = "postgres:16-alpine"

// PGContainer wraps a started container. The zero value stands for an
// externally managed database and terminates as a no-op.
type PGContainer struct {
	C *postgres.PostgresContainer
}

// StartPostgres16 returns overrideDSN or CHALLENGEFLOW_TEST_PG_DSN untouched
// when either is set; otherwise it starts a disposable Postgres container.
func StartPostgres16(ctx context.Context, overrideDSN string) (*PGContainer, string, error) {
	for _, dsn := range []string{overrideDSN, os.Getenv("CHALLENGEFLOW_TEST_PG_DSN")} {
		if dsn != "" {
			return &PGContainer{}, dsn, nil
		}
	}

	image := defaultImage
	if v := os.Getenv("CHALLENGEFLOW_TEST_PG_IMAGE"); v != "" {
		image = v
	}

	pgC, err := postgres.Run(ctx, image,
		postgres.WithDatabase("challengeflow"),
		postgres.WithUsername("challengeflow"),
		postgres.WithPassword("challengeflow"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", err
	}

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, "", err
	}
	return &PGContainer{C: pgC}, dsn, nil
}

func (p *PGContainer) Terminate(ctx context.Context) error {
	if p == nil || p.C == nil {
		return nil
	}
	return p.C.Terminate(ctx)
}

// DockerAvailable reports whether a docker daemon answers.
func DockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}
