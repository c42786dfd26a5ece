package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"giveawaybot/internal/domain"

	"go.uber.org/zap"
)

// OperatorStore holds the approved operator set
type OperatorStore interface {
	IsOperator(userID int64) bool
	GrantOperator(userID int64) bool
	RevokeOperator(userID int64) bool
	Operators() []int64
}

// HandleResolver turns a public @handle into a numeric identity
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (int64, error)
}

// AuthService handles access control
type AuthService struct {
	operators OperatorStore
	resolver  HandleResolver
	ownerID   int64
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(operators OperatorStore, resolver HandleResolver, ownerID int64, logger *zap.Logger) *AuthService {
	return &AuthService{
		operators: operators,
		resolver:  resolver,
		ownerID:   ownerID,
		logger:    logger,
	}
}

// IsOwner checks if user is the super-operator
func (s *AuthService) IsOwner(userID int64) bool {
	return userID == s.ownerID
}

// IsAuthorized checks if user may run management commands
func (s *AuthService) IsAuthorized(userID int64) bool {
	return s.IsOwner(userID) || s.operators.IsOperator(userID)
}

// ResolveUser parses a numeric id or resolves an @handle
func (s *AuthService) ResolveUser(ctx context.Context, ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, domain.ErrInvalidInput
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}

	handle := strings.TrimPrefix(ref, "@")
	if handle == "" {
		return 0, domain.ErrInvalidInput
	}

	id, err := s.resolver.ResolveHandle(ctx, "@"+handle)
	if err != nil {
		s.logger.Warn("Could not resolve user", zap.String("handle", handle), zap.Error(err))
		return 0, fmt.Errorf("resolve @%s: %w", handle, domain.ErrNotFound)
	}
	return id, nil
}

// Grant approves the user referenced by ref. Only the owner may grant.
// The bool reports whether the user was newly added.
func (s *AuthService) Grant(ctx context.Context, actorID int64, ref string) (int64, bool, error) {
	if !s.IsOwner(actorID) {
		return 0, false, domain.ErrForbidden
	}

	id, err := s.ResolveUser(ctx, ref)
	if err != nil {
		return 0, false, err
	}

	added := s.operators.GrantOperator(id)
	if added {
		s.logger.Info("Operator granted", zap.Int64("user_id", id))
	}
	return id, added, nil
}

// Revoke removes the user referenced by ref. Only the owner may revoke.
func (s *AuthService) Revoke(ctx context.Context, actorID int64, ref string) (int64, error) {
	if !s.IsOwner(actorID) {
		return 0, domain.ErrForbidden
	}

	id, err := s.ResolveUser(ctx, ref)
	if err != nil {
		return 0, err
	}

	if !s.operators.RevokeOperator(id) {
		return id, fmt.Errorf("operator %d: %w", id, domain.ErrNotFound)
	}

	s.logger.Info("Operator revoked", zap.Int64("user_id", id))
	return id, nil
}

// Operators lists approved operators. Only the owner may list them.
func (s *AuthService) Operators(actorID int64) ([]int64, error) {
	if !s.IsOwner(actorID) {
		return nil, domain.ErrForbidden
	}
	return s.operators.Operators(), nil
}
