package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"ticket-price-tracker/internal/alert"
	"ticket-price-tracker/internal/types"
	"ticket-price-tracker/lib/helpers"
)

type addRequest struct {
	ConcertName string   `json:"concert_name" binding:"required,no_control"`
	TicketURL   string   `json:"ticket_url" binding:"required,url"`
	Email       string   `json:"email" binding:"required,email"`
	TargetPrice *float64 `json:"target_price" binding:"omitempty,gte=0"`
}

type watchItemResponse struct {
	types.WatchItem
	Added string `json:"added,omitempty"`
}

// Add creates a watch item with no observed prices.
func (h *Handler) Add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	id, err := h.watchlist.AddWatchItem(c.Request.Context(), req.ConcertName, req.TicketURL, req.Email, req.TargetPrice)
	if err != nil {
		log.Errorf("[DB Error] Failed to add concert: %v", err)
		c.String(http.StatusInternalServerError, "DB error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}

// List returns every watch item.
func (h *Handler) List(c *gin.Context) {
	items, err := h.watchlist.ListWatchItems(c.Request.Context())
	if err != nil {
		log.Errorf("[DB Error] Failed to list watchlist: %v", err)
		c.String(http.StatusInternalServerError, "DB error")
		return
	}

	resp := make([]watchItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, watchItemResponse{WatchItem: item, Added: helpers.FormatAge(item.CreatedAt)})
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a watch item. Deleting an unknown id is not an error.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid id"})
		return
	}

	ctx := c.Request.Context()
	item, err := h.watchlist.GetWatchItem(ctx, id)
	switch {
	case errors.Is(err, types.ErrWatchItemNotFound):
		log.Infof("[DELETE] Concert with id=%d not found.", id)
	case err != nil:
		log.Errorf("[DB Error] Failed to fetch concert for delete: %v", err)
		c.String(http.StatusInternalServerError, "DB error")
		return
	default:
		log.WithFields(log.Fields{"id": item.ID, "concert_name": item.ConcertName}).Info("[DELETE] Concert removed")
	}

	deleted, err := h.watchlist.DeleteWatchItem(ctx, id)
	if err != nil {
		log.Errorf("[DB Error] Failed to delete concert: %v", err)
		c.String(http.StatusInternalServerError, "DB error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}

// Check runs one price check cycle right away. The cycle is detached from
// the request so a client hanging up does not cut the sweep short.
func (h *Handler) Check(c *gin.Context) {
	report, err := h.monitor.RunCycle(context.WithoutCancel(c.Request.Context()))
	if errors.Is(err, alert.ErrCycleInProgress) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		log.Errorf("Manual price check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"items":    report.Items,
		"updated":  report.Updated,
		"notified": report.Notified,
		"failed":   report.Failed,
		"no_quote": report.NoQuote,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("http request")
	}
}
