package delivery

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/pdf_ziper/internal/archive"
	"github.com/Vovarama1992/pdf_ziper/internal/convert"
	"github.com/Vovarama1992/pdf_ziper/internal/ports"
	json "github.com/goccy/go-json"
)

// потолок на тело запроса: документы приходят целиком, base64 раздувает
const maxBodySize = 256 << 20

type ConvertHandler struct {
	svc      ports.ConvertService
	notif    ports.Notificator
	log      *logger.ZapLogger
	defaults convert.Defaults
}

func NewConvertHandler(
	svc ports.ConvertService,
	notif ports.Notificator,
	log *logger.ZapLogger,
	defaults convert.Defaults,
) *ConvertHandler {
	return &ConvertHandler{
		svc:      svc,
		notif:    notif,
		log:      log,
		defaults: defaults,
	}
}

// ConvertResponse — счётчики, разбивка по документам и сам архив
type ConvertResponse struct {
	Status string `json:"status"`
	archive.Report
	Archive string `json:"archive,omitempty"` // base64 zip
}

func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}

	tasks, err := convert.Normalize(body, h.defaults)
	if err != nil {
		// InvalidInputError — отбой до начала работы
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logEntry("info", fmt.Sprintf("convert start: %d tasks", len(tasks)))

	results, err := h.svc.Run(r.Context(), tasks)
	if err != nil {
		h.notifyAsync(err, "scheduler failed before any task ran")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	mode := archive.NamingFlat
	if r.URL.Query().Get("naming") == string(archive.NamingGrouped) {
		mode = archive.NamingGrouped
	}

	data, rep, err := archive.Assemble(results, mode)
	if err != nil {
		if errors.Is(err, archive.ErrEmpty) {
			// все задачи упали — единственный фатальный пост-исход
			h.notifyAsync(err, "all documents failed")
			writeJSON(w, http.StatusInternalServerError, ConvertResponse{
				Status: "error",
				Report: rep,
			})
			return
		}
		h.notifyAsync(err, "archive assembly failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logEntry("info", fmt.Sprintf("convert done: %d/%d documents, %d pages", rep.Succeeded, rep.Total, rep.Pages))

	// частичный успех — это успех, сбои видны в разбивке
	writeJSON(w, http.StatusOK, ConvertResponse{
		Status:  "ok",
		Report:  rep,
		Archive: base64.StdEncoding.EncodeToString(data),
	})
}

func (h *ConvertHandler) logEntry(level, msg string) {
	if h.log == nil {
		return
	}
	h.log.Log(logger.LogEntry{
		Level:   level,
		Message: msg,
		Service: "pdf_ziper",
	})
}

// notifyAsync — нотификация не должна задерживать ответ
func (h *ConvertHandler) notifyAsync(err error, details string) {
	if h.notif == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.notif.Notify(ctx, err, details)
	}()
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"status": "error", "error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
