// Package api exposes the watchlist over HTTP.
package api

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"ticket-price-tracker/internal/alert"
	"ticket-price-tracker/internal/types"
)

// Watchlist is the storage the handlers need.
type Watchlist interface {
	AddWatchItem(ctx context.Context, concertName, ticketURL, email string, targetPrice *float64) (int64, error)
	ListWatchItems(ctx context.Context) ([]types.WatchItem, error)
	GetWatchItem(ctx context.Context, id int64) (types.WatchItem, error)
	DeleteWatchItem(ctx context.Context, id int64) (int64, error)
}

// CycleRunner triggers an immediate price check.
type CycleRunner interface {
	RunCycle(ctx context.Context) (alert.CycleReport, error)
}

// Handler serves the watchlist endpoints.
type Handler struct {
	watchlist Watchlist
	monitor   CycleRunner
}

var registerValidators sync.Once

// NewRouter builds the gin engine with CORS enabled for the web client.
func NewRouter(watchlist Watchlist, monitor CycleRunner) *gin.Engine {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Error("gin validator engine is not go-playground/validator, custom rules disabled")
			return
		}
		v.RegisterValidation("no_control", func(fl validator.FieldLevel) bool {
			return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
		})
	})

	h := &Handler{watchlist: watchlist, monitor: monitor}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.Default())

	api := r.Group("/api")
	api.POST("/add", h.Add)
	api.GET("/watchlist", h.List)
	api.DELETE("/delete/:id", h.Delete)
	api.POST("/check", h.Check)

	return r
}
