package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trade-journal/internal/analytics"
	"trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
)

func (s *Server) registerTrades(r *gin.RouterGroup) {
	t := r.Group("/trades")
	t.GET("", s.listTrades)
	t.POST("", s.createTrade)
	t.GET("/:id", s.getTrade)
	t.DELETE("/:id", s.deleteTrade)
}

// listTrades returns every trade inside a date filter when ?filter= is
// given, or when the server has a default filter and the request does not
// ask for a page. Otherwise it pages through all trades.
func (s *Server) listTrades(c *gin.Context) {
	ctx := c.Request.Context()

	df := s.defaultFilter
	filtered := df != analytics.AllTime && c.Query("offset") == "" && c.Query("limit") == ""
	if f := strings.TrimSpace(c.Query("filter")); f != "" {
		var err error
		if df, err = journal.ParseDateFilter(f); err != nil {
			Fail(c, err)
			return
		}
		filtered = true
	}

	if filtered {
		trades, err := s.journal.Trades(ctx, df, s.now())
		if err != nil {
			Fail(c, err)
			return
		}
		Ok(c, models.Details(trades), map[string]any{
			"filter": df,
			"total":  len(trades),
		})
		return
	}

	page, err := s.journal.TradesPage(ctx, intQuery(c, "offset", 0), intQuery(c, "limit", 0))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, models.Details(page.Trades), map[string]any{
		"offset":   page.Offset,
		"limit":    page.Limit,
		"total":    page.Total,
		"has_more": page.HasMore,
	})
}

func (s *Server) createTrade(c *gin.Context) {
	form := journal.NewTradeForm()
	if err := c.ShouldBindJSON(&form); err != nil {
		Fail(c, errors.NewValidationError("", nil, "invalid JSON body: "+err.Error()))
		return
	}

	trade, err := form.Build(s.now())
	if err != nil {
		s.journal.RecordRejected(c.Request.Context(), err)
		Fail(c, err)
		return
	}

	saved, err := s.journal.AddTrade(c.Request.Context(), trade)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, saved.Detail())
}

func (s *Server) getTrade(c *gin.Context) {
	id, ok := s.tradeID(c)
	if !ok {
		return
	}

	trade, err := s.journal.Trade(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, trade.Detail(), nil)
}

func (s *Server) deleteTrade(c *gin.Context) {
	id, ok := s.tradeID(c)
	if !ok {
		return
	}

	if err := s.journal.DeleteTrade(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	logger := logging.WithTradeID(logging.FromContext(c.Request.Context()), id.String())
	logger.Debug().Str("remote", c.ClientIP()).Msg("Trade deleted over HTTP")
	Ok(c, gin.H{"deleted": id}, nil)
}

func (s *Server) tradeID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		Fail(c, errors.NewValidationError("id", raw, "invalid trade id"))
		return uuid.Nil, false
	}
	return id, true
}
