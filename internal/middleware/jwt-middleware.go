package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	app_error "github.com/eudesrpj/salva-plantao-app-sub001/internal/errors"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/utils"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/utils/types"
)

type claimsKey string

const UserClaimsKey claimsKey = "userClaims"

// JWTAuthWithAutoRefresh validates the access token and, when it has
// expired, transparently rotates the refresh session stored in Redis for
// this device fingerprint.
func JWTAuthWithAutoRefresh(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, rdb *redis.Client) func(http.Handler) http.Handler {
	const (
		refreshTTL    = 7 * 24 * time.Hour
		statusValid   = "valid"
		statusRevoked = "revoked"
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fp, ok := r.Context().Value(FingerprintKey).(string)
			if !ok || fp == "" {
				writeAppError(w, app_error.Unauthorized("Missing device fingerprint"))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAppError(w, app_error.Unauthorized("Missing Authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeAppError(w, app_error.Unauthorized("Invalid Authorization header format"))
				return
			}

			tokenStr := parts[1]
			claims, err := utils.ParseAndVerifySign(tokenStr, publicKey)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					refreshCookie, cerr := r.Cookie("refresh_token")
					if cerr != nil {
						writeAppError(w, app_error.Unauthorized("Refresh token missing"))
						return
					}

					refreshClaims, rErr := utils.ParseAndVerifySign(refreshCookie.Value, publicKey)
					if rErr != nil || refreshClaims.Jti == nil {
						writeAppError(w, app_error.Unauthorized("Invalid refresh token"))
						return
					}

					sessionKey := fmt.Sprintf("refresh:%s:%s:%s", refreshClaims.Sub, fp, *refreshClaims.Jti)

					session, serr := utils.GetCacheData[types.RefreshSession](r.Context(), rdb, sessionKey)
					if serr != nil || session == nil || session.Status != statusValid || session.ExpireAt < time.Now().Unix() {
						writeAppError(w, app_error.Unauthorized("Refresh token revoked or expired"))
						return
					}

					newAccess, newRefresh, newJTI, genErr := utils.IssueNewTokens(refreshClaims.Sub, refreshClaims.Username, privateKey)
					if genErr != nil {
						writeAppError(w, app_error.Internal("Failed to issue new tokens", "auth"))
						return
					}

					issueAt := time.Now().Unix()
					expiresRefresh := issueAt + int64(refreshTTL.Seconds())

					newSessionKey := fmt.Sprintf("refresh:%s:%s:%s", refreshClaims.Sub, fp, newJTI)
					newSession := types.RefreshSession{
						UserId:      refreshClaims.Sub,
						JTI:         newJTI,
						Fingerprint: fp,
						IssueAt:     issueAt,
						ExpireAt:    expiresRefresh,
						Status:      statusValid,
					}

					if err := utils.SetCacheData(r.Context(), rdb, newSessionKey, &newSession, refreshTTL); err != nil {
						log.Error().Err(err).Msg("failed to store rotated refresh session")
					}

					session.Status = statusRevoked
					if err := utils.SetCacheData(r.Context(), rdb, sessionKey, session, time.Until(time.Unix(session.ExpireAt, 0))); err != nil {
						log.Error().Err(err).Msg("failed to revoke old refresh session")
					}

					http.SetCookie(w, &http.Cookie{
						Name:     "refresh_token",
						Value:    newRefresh,
						HttpOnly: true,
						Secure:   true,
						SameSite: http.SameSiteStrictMode,
						Path:     "/",
						Expires:  time.Now().Add(refreshTTL),
					})

					w.Header().Set("X-New-Access-Token", newAccess)
					claims, _ = utils.ParseAndVerifySign(newAccess, publicKey)
				} else {
					writeAppError(w, app_error.Unauthorized("Invalid token"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
