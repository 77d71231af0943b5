package server

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/logger"
	"github.com/osse101/TriviaCast_Go/internal/metrics"
)

// Quick Auth verification failures
var (
	ErrTokenMissing   = fmt.Errorf("%w: bearer token is required", domain.ErrAuth)
	ErrTokenInvalid   = fmt.Errorf("%w: token is invalid", domain.ErrAuth)
	ErrSubjectInvalid = fmt.Errorf("%w: token subject is not a FID", domain.ErrAuth)
	ErrNotAdmin       = fmt.Errorf("%w: FID is not an admin", domain.ErrAuth)
)

type adminFIDKey struct{}

// WithAdminFID stores the authenticated admin FID in the context
func WithAdminFID(ctx context.Context, fid int64) context.Context {
	return context.WithValue(ctx, adminFIDKey{}, fid)
}

// AdminFIDFromContext returns the authenticated admin FID, if any
func AdminFIDFromContext(ctx context.Context) (int64, bool) {
	fid, ok := ctx.Value(adminFIDKey{}).(int64)
	return fid, ok
}

// QuickAuthVerifier validates Farcaster Quick Auth tokens: EdDSA signed JWTs
// whose subject is the caller's FID.
type QuickAuthVerifier struct {
	issuer   string
	audience string
	key      ed25519.PublicKey
	admins   map[int64]struct{}
	now      func() time.Time
}

// NewQuickAuthVerifier builds a verifier from a base64 Ed25519 public key.
// An empty admin list rejects every caller.
func NewQuickAuthVerifier(issuer, audience, publicKey string, adminFIDs []int64, now func() time.Time) (*QuickAuthVerifier, error) {
	issuer = strings.TrimSpace(issuer)
	audience = strings.TrimSpace(audience)
	if issuer == "" {
		return nil, errors.New("auth issuer is required")
	}
	if audience == "" {
		return nil, errors.New("auth audience is required")
	}

	keyBytes, err := decodeBase64(strings.TrimSpace(publicKey))
	if err != nil {
		return nil, fmt.Errorf("decode auth public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("auth public key must be %d bytes", ed25519.PublicKeySize)
	}

	if now == nil {
		now = time.Now
	}
	admins := make(map[int64]struct{}, len(adminFIDs))
	for _, fid := range adminFIDs {
		admins[fid] = struct{}{}
	}

	return &QuickAuthVerifier{
		issuer:   issuer,
		audience: audience,
		key:      ed25519.PublicKey(keyBytes),
		admins:   admins,
		now:      now,
	}, nil
}

// Verify checks the token and returns the admin FID it was issued to
func (v *QuickAuthVerifier) Verify(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrTokenMissing
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	fid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || fid <= 0 {
		return 0, ErrSubjectInvalid
	}
	if _, ok := v.admins[fid]; !ok {
		return 0, ErrNotAdmin
	}
	return fid, nil
}

// AdminAuthMiddleware requires a Quick Auth token from an allowlisted FID
func AdminAuthMiddleware(verifier *QuickAuthVerifier, proxies TrustedProxies, detector *SuspiciousActivityDetector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fid, err := verifier.Verify(bearerToken(r))
			if err != nil {
				ip := proxies.ClientIP(r)
				detector.RecordFailedAuth(ip)
				metrics.AuthFailures.WithLabelValues(metrics.SchemeQuickAuth).Inc()

				logger.FromContext(r.Context()).Warn(LogMsgAuthFailed,
					"path", r.URL.Path,
					"ip", ip,
					"error", err)

				http.Error(w, ErrMsgUnauthorized, http.StatusUnauthorized)
				return
			}

			ctx := WithAdminFID(r.Context(), fid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) string {
	header := r.Header.Get(HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

func decodeBase64(value string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(value); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(value)
}
