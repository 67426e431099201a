package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// shareHandler serves a QR code pointing players at url.
func shareHandler(url string, logger *slog.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if url == "" {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "public url not configured"})
			return
		}

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			logger.Error("encode share qr", "url", url, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(png)
	}
}
