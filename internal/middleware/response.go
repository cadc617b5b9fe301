package middleware

import (
	"net/http"

	"github.com/vendalocal/whatsapp-assistant/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
