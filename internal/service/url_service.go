package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/priy-am/url-shortener-service/internal/metrics"
	"github.com/priy-am/url-shortener-service/internal/model"
	"github.com/priy-am/url-shortener-service/internal/repository"
)

var (
	ErrInvalidURL        = errors.New("invalid URL format")
	ErrCodeGenerationMax = errors.New("failed to generate unique code after max attempts")
)

const maxLongURLLength = 2048

// URLService implements the shorten / resolve / list operations on top of a
// MappingStore. It owns code generation; uniqueness is only claimed at the
// moment InsertIfAbsent commits, so a collision between the check and the
// insert shows up as ErrDuplicateCode and triggers a regeneration.
type URLService struct {
	store       repository.MappingStore
	logger      *zap.Logger
	codeLength  int
	maxAttempts int
}

func NewURLService(store repository.MappingStore, codeLength, maxAttempts int) *URLService {
	return &URLService{
		store:       store,
		logger:      zap.L().With(zap.String("component", "URLService")),
		codeLength:  codeLength,
		maxAttempts: maxAttempts,
	}
}

// Shorten validates longURL and persists a new mapping for it under a fresh
// code. Policy: a long URL that was shortened before still gets a new code;
// there is no reverse lookup.
func (s *URLService) Shorten(ctx context.Context, longURL string) (*model.UrlMapping, error) {
	if !isValidURL(longURL) {
		return nil, ErrInvalidURL
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code := s.generateCode()

		mapping, err := s.store.InsertIfAbsent(ctx, code, longURL)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateCode) {
				// Lost the race for this code, mint another.
				metrics.CodeGenerationRetries.Inc()
				s.logger.Warn("Short code collision, regenerating",
					zap.String("code", code),
					zap.Int("attempt", attempt+1))
				continue
			}
			metrics.URLCreationTotal.WithLabelValues("error").Inc()
			return nil, err
		}

		metrics.URLCreationTotal.WithLabelValues("success").Inc()
		s.logger.Info("URL shortened successfully",
			zap.String("code", mapping.Code),
			zap.String("url", mapping.LongURL))
		return mapping, nil
	}

	// Exhausting the retry bound means the code space is under pressure;
	// this should page someone, not fail silently.
	metrics.URLCreationTotal.WithLabelValues("exhausted").Inc()
	s.logger.Error("Code generation attempts exhausted",
		zap.Int("max_attempts", s.maxAttempts),
		zap.Int("code_length", s.codeLength))
	return nil, ErrCodeGenerationMax
}

// Resolve looks up code and counts the visit in one atomic store operation.
// The returned mapping carries the click count including this visit.
func (s *URLService) Resolve(ctx context.Context, code string) (*model.UrlMapping, error) {
	mapping, err := s.store.IncrementClicks(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrURLNotFound) {
			metrics.URLRedirectTotal.WithLabelValues("not_found").Inc()
		} else {
			metrics.URLRedirectTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.URLRedirectTotal.WithLabelValues("success").Inc()
	s.logger.Debug("Resolved short URL",
		zap.String("code", code),
		zap.Int64("clicks", mapping.Clicks))
	return mapping, nil
}

// Stats returns the mapping without registering a visit.
func (s *URLService) Stats(ctx context.Context, code string) (*model.UrlMapping, error) {
	return s.store.FindByCode(ctx, code)
}

// ListAll returns every mapping, newest first.
func (s *URLService) ListAll(ctx context.Context) ([]model.UrlMapping, error) {
	return s.store.ListAll(ctx)
}

// HealthCheck reports whether the backing store is reachable.
func (s *URLService) HealthCheck(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *URLService) generateCode() string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	code := make([]byte, s.codeLength)

	for i := 0; i < s.codeLength; i++ {
		randomIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			panic(fmt.Sprintf("failed to generate random number: %v", err))
		}
		code[i] = chars[randomIndex.Int64()]
	}

	return string(code)
}

func isValidURL(rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || len(rawURL) > maxLongURLLength {
		return false
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	return parsed.Host != ""
}
