package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/mail"
	"github.com/helpdesk/it-helpdesk/internal/repository"
	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

func seedUser(t *testing.T, repos repository.Repositories, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:     email,
		FirstName: "Test",
		LastName:  string(role),
		Role:      role,
		IsStaff:   true,
		IsActive:  true,
	}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

func requireDomainError(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, status, domainErr.HTTPStatus, domainErr.Message)
	return domainErr
}

// recordingSender captures outbound mail instead of delivering it.
type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) recipients(subject string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, msg := range s.sent {
		if msg.Subject == subject {
			out = append(out, msg.To)
		}
	}
	return out
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

// failingSender rejects every message but remembers who it was for.
type failingSender struct {
	mu       sync.Mutex
	attempts []string
}

func (s *failingSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, msg.To)
	return errors.New("smtp: 421 service not available")
}

func (s *failingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}
