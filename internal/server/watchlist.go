package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/watchlist"
)

const quoteConcurrency = 4

// watchlistEntry is an item enriched with a quote. Stale marks a cached
// quote served because every provider failed.
type watchlistEntry struct {
	model.WatchlistItem
	Data  *model.Quote `json:"data,omitempty"`
	Stale bool         `json:"stale,omitempty"`
}

type addRequest struct {
	Symbol     string                 `json:"symbol"`
	AssetClass model.AssetClass       `json:"type"`
	Indicators *model.IndicatorConfig `json:"indicators"`
}

type updateRequest struct {
	Symbol     string                 `json:"symbol"`
	Indicators *model.IndicatorConfig `json:"indicators"`
}

// listWatchlist handles GET /api/watchlist
func (s *Server) listWatchlist(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := s.watchlist.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	entries := make([]watchlistEntry, len(items))
	var g errgroup.Group
	g.SetLimit(quoteConcurrency)
	for i, item := range items {
		entries[i].WatchlistItem = item
		g.Go(func() error {
			if q := s.collector.GetQuote(ctx, item.Symbol, item.AssetClass); q != nil {
				entries[i].Data = q
			} else if item.LastQuote != nil {
				entries[i].Data = item.LastQuote
				entries[i].Stale = true
			}
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, entries)
}

// addWatchlist handles POST /api/watchlist. Indicators default to none.
func (s *Server) addWatchlist(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil || watchlist.NormalizeKey(req.Symbol) == "" || req.AssetClass == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and type are required"})
		return
	}
	var indicators model.IndicatorConfig
	if req.Indicators != nil {
		indicators = *req.Indicators
	}

	added, err := s.watchlist.Add(c.Request.Context(), req.Symbol, req.AssetClass, indicators)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondList(c, gin.H{"added": added})
}

// updateWatchlist handles PUT /api/watchlist
func (s *Server) updateWatchlist(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil || watchlist.NormalizeKey(req.Symbol) == "" || req.Indicators == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and indicators are required"})
		return
	}
	if err := s.watchlist.UpdateIndicators(c.Request.Context(), req.Symbol, *req.Indicators); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondList(c, nil)
}

// removeWatchlist handles DELETE /api/watchlist?symbol=
func (s *Server) removeWatchlist(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol required"})
		return
	}
	if err := s.watchlist.Remove(c.Request.Context(), symbol); err != nil {
		s.writeError(c, err)
		return
	}
	s.respondList(c, nil)
}

func (s *Server) respondList(c *gin.Context, extra gin.H) {
	items, err := s.watchlist.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	body := gin.H{"success": true, "watchlist": items}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, watchlist.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.log.WithError(err).Error("watchlist write")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
