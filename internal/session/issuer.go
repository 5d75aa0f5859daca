package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expertcall/backend/internal/models"
)

// MintResult is one freshly minted set of room credentials.
type MintResult struct {
	Room        string
	ExpertToken string
	ClientToken string
}

// Minter issues fresh call-room credentials for an appointment. The provider
// is a black box with its own latency and rate limits; the issuer owns only
// the caching policy around it.
type Minter interface {
	Mint(ctx context.Context, appointmentID uuid.UUID) (MintResult, error)
}

// Store persists the per-appointment credential cache. Get returns nil when no
// entry exists. Replace overwrites the whole entry atomically; a new issuance
// supersedes the prior one, the two never mix fields.
type Store interface {
	Get(ctx context.Context, appointmentID uuid.UUID) (*models.CallSession, error)
	Replace(ctx context.Context, s *models.CallSession) error
}

// Issuer is the single source of truth for whether a call credential exists
// for an appointment and whether it is still fresh.
type Issuer struct {
	store       Store
	minter      Minter
	ttl         time.Duration
	mintTimeout time.Duration
	locks       *keyedMutex
	logger      *zap.Logger
}

// NewIssuer creates a credential issuer with the given freshness TTL and mint timeout.
func NewIssuer(store Store, minter Minter, ttl, mintTimeout time.Duration, logger *zap.Logger) *Issuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{
		store:       store,
		minter:      minter,
		ttl:         ttl,
		mintTimeout: mintTimeout,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

// GetOrRefresh returns the cached credential for the appointment if it is
// younger than the TTL, otherwise mints a replacement. Concurrent callers for
// the same appointment serialize on a per-appointment lock: one of them mints,
// the rest re-read the cache and get the same credential. On mint or store
// failure the prior cache entry is left untouched and the error wraps
// ErrIssuanceFailed.
func (i *Issuer) GetOrRefresh(ctx context.Context, appointmentID uuid.UUID, now time.Time) (*models.CallSession, error) {
	unlock := i.locks.Lock(appointmentID)
	defer unlock()

	cached, err := i.store.Get(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load cached credential: %w", err)
	}
	if cached != nil && cached.Age(now) < i.ttl {
		return cached, nil
	}

	mintCtx, cancel := context.WithTimeout(ctx, i.mintTimeout)
	defer cancel()
	minted, err := i.minter.Mint(mintCtx, appointmentID)
	if err != nil {
		i.logger.Warn("credential mint failed",
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrIssuanceFailed, err)
	}

	fresh := &models.CallSession{
		AppointmentID: appointmentID,
		Room:          minted.Room,
		ExpertToken:   minted.ExpertToken,
		ClientToken:   minted.ClientToken,
		IssuedAt:      now,
	}
	if err := i.store.Replace(ctx, fresh); err != nil {
		return nil, fmt.Errorf("%w: store credential: %v", ErrIssuanceFailed, err)
	}
	i.logger.Info("call credential issued",
		zap.String("appointment_id", appointmentID.String()),
		zap.String("room", fresh.Room))
	return fresh, nil
}
