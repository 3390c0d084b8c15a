package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"trade-journal/internal/analytics"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
)

func (s *Server) registerAnalytics(r *gin.RouterGroup) {
	a := r.Group("/analytics")
	a.GET("/summary", s.withTrades(func(c *gin.Context, trades []models.Trade, q analytics.Query) {
		Ok(c, analytics.Summarize(trades), queryMeta(q))
	}))
	a.GET("/equity", s.withTrades(func(c *gin.Context, trades []models.Trade, q analytics.Query) {
		points := analytics.EquityCurve(trades)
		lo, hi := analytics.YAxisRange(points)
		meta := queryMeta(q)
		meta["y_min"] = lo
		meta["y_max"] = hi
		Ok(c, points, meta)
	}))
	a.GET("/monthly", s.withTrades(func(c *gin.Context, trades []models.Trade, q analytics.Query) {
		Ok(c, analytics.MonthlyBuckets(trades), queryMeta(q))
	}))
	a.GET("/groups", s.groups)
	a.GET("/symbols", s.symbols)
	a.GET("/streaks", s.withTrades(func(c *gin.Context, trades []models.Trade, q analytics.Query) {
		Ok(c, analytics.WinStreaks(trades), queryMeta(q))
	}))
	a.GET("/risk", s.withTrades(func(c *gin.Context, trades []models.Trade, q analytics.Query) {
		Ok(c, analytics.AnalyzeRisk(trades), queryMeta(q))
	}))
	a.GET("/distribution", s.withTrades(func(c *gin.Context, trades []models.Trade, q analytics.Query) {
		Ok(c, analytics.ProfitDistribution(trades), queryMeta(q))
	}))
	a.GET("/report", s.report)
}

func parseQuery(c *gin.Context) (analytics.Query, error) {
	return journal.ParseQuery(c.Query("timeframe"), c.Query("strategy"), c.Query("period"))
}

func queryMeta(q analytics.Query) map[string]any {
	return map[string]any{"query": q}
}

// withTrades parses the query parameters and hands the matching trades to fn.
func (s *Server) withTrades(fn func(c *gin.Context, trades []models.Trade, q analytics.Query)) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseQuery(c)
		if err != nil {
			Fail(c, err)
			return
		}
		trades, err := s.journal.AllTrades(c.Request.Context())
		if err != nil {
			Fail(c, err)
			return
		}
		fn(c, q.Apply(trades, s.now()), q)
	}
}

func (s *Server) groups(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		Fail(c, err)
		return
	}
	by := strings.ToLower(strings.TrimSpace(c.Query("by")))
	key, err := journal.ParseGroupKey(by)
	if err != nil {
		Fail(c, err)
		return
	}

	groups, err := s.journal.Groups(c.Request.Context(), key, q, s.now())
	if err != nil {
		Fail(c, err)
		return
	}
	if by == "" || by == "strategy" {
		groups = analytics.RankByWinRate(groups)
	}

	meta := queryMeta(q)
	meta["by"] = by
	Ok(c, groups, meta)
}

// symbols returns the top symbols, or a single symbol's stats with ?symbol=.
func (s *Server) symbols(c *gin.Context) {
	ctx := c.Request.Context()

	if symbol := strings.TrimSpace(c.Query("symbol")); symbol != "" {
		g, ok, err := s.journal.SymbolStat(ctx, symbol)
		if err != nil {
			Fail(c, err)
			return
		}
		if !ok {
			Ok(c, nil, map[string]any{"symbol": symbol, "trades": 0})
			return
		}
		Ok(c, g, map[string]any{"symbol": symbol})
		return
	}

	q, err := parseQuery(c)
	if err != nil {
		Fail(c, err)
		return
	}
	limit := intQuery(c, "limit", 0)

	var top []analytics.GroupStats
	if q == (analytics.Query{Period: analytics.PeriodAll}) {
		top, err = s.journal.TopSymbols(ctx, limit)
	} else {
		var trades []models.Trade
		trades, err = s.journal.AllTrades(ctx)
		if limit <= 0 {
			limit = analytics.DefaultTopSymbols
		}
		top = analytics.TopSymbols(q.Apply(trades, s.now()), limit)
	}
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, top, queryMeta(q))
}

func (s *Server) report(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		Fail(c, err)
		return
	}
	report, err := s.journal.Report(c.Request.Context(), q, s.now())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, report, nil)
}
