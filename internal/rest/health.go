package rest

import (
	"context"
	"net/http"
	"time"

	"storefront-be/internal/transport"
)

type healthReply struct {
	Status   string            `json:"status"`
	Database string            `json:"database"`
	Payments map[string]uint64 `json:"payments"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	reply := healthReply{Status: "ok", Database: "ok", Payments: h.Stats.Snapshot()}
	status := http.StatusOK

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			reply.Status = "degraded"
			reply.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	transport.JSON(w, status, reply)
}
