// Package services provides core business logic services.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sufield/entryadmin/internal/core/domain"
	"github.com/sufield/entryadmin/internal/core/errors"
	"github.com/sufield/entryadmin/internal/core/ports"
)

// Outcome labels recorded for successful exchanges.
const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected"
)

// RegistrationService registers one entry with the control plane.
//
// The pipeline runs strictly in order:
//  1. build the EntryDefinition from operator input (no I/O)
//  2. fetch the identity context from the local agent
//  3. store it in the credential provider
//  4. dial the control plane over mutual TLS using that provider
//  5. send the entry and close the session
//
// Any failure aborts the pipeline. Nothing is sent unless steps 1-4 succeed,
// and nothing is retried.
type RegistrationService struct {
	fetcher ports.IdentityFetcher
	store   ports.CredentialStore
	dialer  ports.RegistrarDialer
	metrics ports.MetricsReporter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a RegistrationService.
type Option func(*RegistrationService)

// WithMetrics sets the metrics reporter. The default discards everything.
func WithMetrics(m ports.MetricsReporter) Option {
	return func(s *RegistrationService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *RegistrationService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for credential checks.
func WithClock(now func() time.Time) Option {
	return func(s *RegistrationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRegistrationService wires the pipeline collaborators.
func NewRegistrationService(
	fetcher ports.IdentityFetcher,
	store ports.CredentialStore,
	dialer ports.RegistrarDialer,
	opts ...Option,
) (*RegistrationService, error) {
	switch {
	case fetcher == nil:
		return nil, &errors.ValidationError{Field: "fetcher", Message: "identity fetcher cannot be nil"}
	case store == nil:
		return nil, &errors.ValidationError{Field: "store", Message: "credential store cannot be nil"}
	case dialer == nil:
		return nil, &errors.ValidationError{Field: "dialer", Message: "registrar dialer cannot be nil"}
	}

	s := &RegistrationService{
		fetcher: fetcher,
		store:   store,
		dialer:  dialer,
		metrics: NoOpMetrics{},
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates in, bootstraps the authenticated session and submits the entry.
//
// A result with a non-OK status is returned with a nil error: the exchange
// itself completed. Errors carry one of the core error kinds.
func (s *RegistrationService) Register(ctx context.Context, in domain.EntryInput) (*domain.RegistrationResult, error) {
	def, err := domain.NewEntryDefinition(in)
	if err != nil {
		s.metrics.RecordOutcome(outcomeFor(err))
		return nil, err
	}

	if err := s.Bootstrap(ctx); err != nil {
		s.metrics.RecordBootstrapFailure(outcomeFor(err))
		s.metrics.RecordOutcome(outcomeFor(err))
		return nil, err
	}

	result, err := s.send(ctx, def)
	if err != nil {
		if errors.CategoryOf(err) == errors.CategoryBootstrap {
			s.metrics.RecordBootstrapFailure(outcomeFor(err))
		}
		s.metrics.RecordOutcome(outcomeFor(err))
		return nil, err
	}

	if result.Succeeded() {
		s.metrics.RecordOutcome(OutcomeCreated)
		s.logger.Info("entry created", "spiffe_id", def.ID().String(), "entry_id", entryID(result))
	} else {
		s.metrics.RecordOutcome(OutcomeRejected)
		s.logger.Warn("entry rejected by control plane",
			"spiffe_id", def.ID().String(), "code", result.CodeName, "message", result.Message)
	}
	return result, nil
}

// Bootstrap fetches the identity context from the agent and stores it.
// It is the only step that talks to the agent.
func (s *RegistrationService) Bootstrap(ctx context.Context) error {
	start := s.now()
	ic, err := s.fetcher.FetchContext(ctx)
	s.metrics.RecordFetch(err == nil, s.now().Sub(start))
	if err != nil {
		s.logger.Error("identity fetch failed", "error", err)
		return err
	}
	if ic == nil || ic.Leaf == nil {
		return errors.NewDomainError(errors.ErrIdentityContext, fmt.Errorf("agent returned no leaf credential"))
	}

	s.store.Update(ic)

	leaf := ic.Leaf
	s.metrics.RecordLeafExpiry(leaf.NotAfter())
	if now := s.now(); !leaf.ValidAt(now) {
		s.logger.Warn("leaf credential outside its validity window",
			"spiffe_id", leaf.ID().String(), "not_before", leaf.NotBefore(), "not_after", leaf.NotAfter())
	}
	s.logger.Debug("identity context fetched",
		"spiffe_id", leaf.ID().String(),
		"not_after", leaf.NotAfter(),
		"trust_domains", ic.Bundles.TrustDomains())
	return nil
}

func (s *RegistrationService) send(ctx context.Context, def *domain.EntryDefinition) (_ *domain.RegistrationResult, err error) {
	registrar, err := s.dialer.Dial(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := registrar.Close(); cerr != nil {
			s.logger.Debug("closing registrar", "error", cerr)
		}
	}()

	start := s.now()
	result, err := registrar.CreateEntry(ctx, def)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.RecordRPC(outcomeFor(err), elapsed)
		return nil, err
	}
	if result == nil {
		return nil, errors.NewDomainError(errors.ErrProtocolViolation, fmt.Errorf("registrar returned no result"))
	}
	s.metrics.RecordRPC(result.CodeName, elapsed)
	return result, nil
}

func outcomeFor(err error) string {
	if code := errors.Code(err); code != "" {
		return strings.ToLower(code)
	}
	return "runtime"
}

func entryID(r *domain.RegistrationResult) string {
	if r.Entry == nil {
		return ""
	}
	return r.Entry.ID
}
