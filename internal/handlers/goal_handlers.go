package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"fundbox/internal/goals"
	"fundbox/internal/services"
)

const goalCacheTTL = time.Minute

type GoalHandler struct {
	resolver *goals.Resolver
	cache    *services.RedisCache
}

func NewGoalHandler(resolver *goals.Resolver, cache *services.RedisCache) *GoalHandler {
	return &GoalHandler{resolver: resolver, cache: cache}
}

// GoalProgress returns the monthly goal and collected figure for an
// organization, optionally scoped by project_id/site_id query params
func (h *GoalHandler) GoalProgress(c echo.Context) error {
	orgID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
	}

	projectID := optionalUintParam(c.QueryParam("project_id"))
	siteID := optionalUintParam(c.QueryParam("site_id"))

	ctx := c.Request().Context()
	fetch := func() (*goals.Progress, error) {
		return h.resolver.MonthProgress(ctx, uint(orgID), projectID, siteID, time.Now())
	}

	var progress *goals.Progress
	if h.cache != nil {
		key := fmt.Sprintf("goal-progress:%d:%s:%s", orgID, c.QueryParam("project_id"), c.QueryParam("site_id"))
		progress, err = services.GetOrSet(h.cache, ctx, key, goalCacheTTL, fetch)
	} else {
		progress, err = fetch()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve goal progress")
	}

	return respondOK(c, progress)
}

func optionalUintParam(s string) *uint {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}
