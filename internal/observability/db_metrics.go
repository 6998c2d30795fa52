package observability

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// ObserveDB times one logical users-store operation. Lookups that miss and
// inserts that hit an existing email are answers, so only the rest count as errors.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := dbStatus(err)
	if status == "error" {
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())

	return err
}

func dbStatus(err error) string {
	var pgErr *pgconn.PgError

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, user.ErrNotFound):
		return "not_found"
	case errors.Is(err, user.ErrEmailTaken),
		errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return "conflict"
	default:
		return "error"
	}
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		case "53300":
			return "too_many_connections"
		default:
			return "pg_" + pgErr.Code
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection") || strings.Contains(msg, "dial"):
		return "connection"
	default:
		return "unknown"
	}
}
