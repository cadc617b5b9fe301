package handler

import (
	"net/http"

	"github.com/vendalocal/whatsapp-assistant/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.WriteJSON(w, status, data)
}
