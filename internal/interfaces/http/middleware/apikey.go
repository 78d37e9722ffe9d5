package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProviderKey is the gin context key holding the authenticated provider
const ProviderKey = "logistics_provider"

// APIKeyConfig holds the webhook key table
type APIKeyConfig struct {
	// Keys maps a bearer key to the provider name it authenticates
	Keys map[string]string
	// ProviderParam names the path parameter the provider must match
	ProviderParam string
	Logger        *zap.Logger
}

type apiKey struct {
	key      []byte
	provider logistics.Provider
}

// APIKeyAuth authenticates provider webhooks with static bearer keys.
// A missing or unknown key is rejected with 401. A key issued to a
// different provider than the one in the path is rejected with 403.
func APIKeyAuth(cfg APIKeyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	param := cfg.ProviderParam
	if param == "" {
		param = "provider"
	}

	keys := make([]apiKey, 0, len(cfg.Keys))
	for key, name := range cfg.Keys {
		provider, err := logistics.ParseProvider(name)
		if err != nil || key == "" {
			log.Warn("ignoring webhook key for unknown provider", zap.String("provider", name))
			continue
		}
		keys = append(keys, apiKey{key: []byte(key), provider: provider})
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortAuth(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "API key required")
			return
		}
		provider, ok := lookupKey(keys, token)
		if !ok {
			log.Warn("webhook rejected: unknown API key", zap.String("path", c.Request.URL.Path))
			abortAuth(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid API key")
			return
		}

		requested, err := logistics.ParseProvider(c.Param(param))
		if err != nil || requested != provider {
			log.Warn("webhook rejected: key issued to another provider",
				zap.String("key_provider", string(provider)),
				zap.String("path_provider", c.Param(param)),
			)
			abortAuth(c, http.StatusForbidden, dto.ErrCodeForbidden, "API key is not valid for this provider")
			return
		}

		c.Set(ProviderKey, provider)
		c.Request = c.Request.WithContext(logger.WithProvider(c.Request.Context(), string(provider)))
		c.Next()
	}
}

// GetProvider returns the provider authenticated by APIKeyAuth
func GetProvider(c *gin.Context) (logistics.Provider, bool) {
	v, ok := c.Get(ProviderKey)
	if !ok {
		return "", false
	}
	p, ok := v.(logistics.Provider)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// lookupKey compares against every key in constant time
func lookupKey(keys []apiKey, token string) (logistics.Provider, bool) {
	var (
		found    logistics.Provider
		matched  bool
		tokenRaw = []byte(token)
	)
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k.key, tokenRaw) == 1 {
			found, matched = k.provider, true
		}
	}
	return found, matched
}

func abortAuth(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
