package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/util"
)

const signatureHeader = "X-Hub-Signature-256"

// SignatureMiddleware verifies the HMAC Meta attaches to webhook
// deliveries. The signature covers the raw body, so the body is read once
// here and restored for the handler.
type SignatureMiddleware struct {
	appSecret string
}

func NewSignatureMiddleware(appSecret string) *SignatureMiddleware {
	return &SignatureMiddleware{appSecret: appSecret}
}

func (m *SignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.appSecret == "" {
			log.Warn().Msg("webhook signature verification bypassed: APP_SECRET is not configured")
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet {
			// Verification handshake requests are not signed.
			next.ServeHTTP(w, r)
			return
		}

		signature := strings.TrimPrefix(r.Header.Get(signatureHeader), "sha256=")
		if signature == "" {
			log.Warn().Msg("signature middleware: missing signature header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing signature",
			})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("signature middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		computed := util.HmacSHA256(m.appSecret, body)
		if !util.ConstantTimeEqual(computed, signature) {
			log.Warn().Msg("signature middleware: invalid signature")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid signature",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
