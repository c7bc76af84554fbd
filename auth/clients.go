package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrClientNotFound signals that the client does not exist.
var ErrClientNotFound = errors.New("auth: client not found")

// Clients looks up API clients by id.
type Clients interface {
	GetClient(ctx context.Context, id string) (Client, error)
}

// StaticClients is an in-memory client registry, populated from configuration.
type StaticClients struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewStaticClients(clients ...Client) *StaticClients {
	s := &StaticClients{clients: make(map[string]Client, len(clients))}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

func (s *StaticClients) GetClient(_ context.Context, id string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	return c, nil
}

// HashSecret hashes a client secret for storage in configuration.
func HashSecret(secret string) (string, error) {
	if len(secret) < minSecretLength {
		return "", ErrWeakSecret
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash secret: %w", err)
	}
	return string(h), nil
}
