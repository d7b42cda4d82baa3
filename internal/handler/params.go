package handler

import (
	"strconv"
	"time"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateOnly = "2006-01-02"

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a UUID", key)
	}
	return &id, nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a number", key)
	}
	return &d, nil
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer", key)
	}
	return &n, nil
}

func queryIntOr(c *fiber.Ctx, key string, def int) (int, error) {
	n, err := queryInt(c, key)
	if err != nil || n == nil {
		return def, err
	}
	return *n, nil
}

// queryTime accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func queryTime(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a date (YYYY-MM-DD) or RFC 3339 time", key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryDateRange(c *fiber.Ctx) (model.DateRange, error) {
	start, err := queryTime(c, "start_date", false)
	if err != nil {
		return model.DateRange{}, err
	}
	end, err := queryTime(c, "end_date", true)
	if err != nil {
		return model.DateRange{}, err
	}
	return model.DateRange{Start: start, End: end}, nil
}

func queryPage(c *fiber.Ctx) (model.Page, error) {
	skip, err := queryIntOr(c, "skip", 0)
	if err != nil {
		return model.Page{}, err
	}
	limit, err := queryIntOr(c, "limit", model.DefaultLimit)
	if err != nil {
		return model.Page{}, err
	}
	if skip < 0 || limit < 1 {
		return model.Page{}, apperr.Validation("skip must be >= 0 and limit >= 1")
	}
	return model.Page{Skip: skip, Limit: limit}, nil
}
