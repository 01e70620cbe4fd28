package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// translate maps driver errors onto the apperrors taxonomy.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.Conflict, err, "%s", op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505", pgErr.Code == "40001", pgErr.Code == "40P01":
			return apperrors.Wrap(apperrors.Conflict, err, "%s", op)
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "57P03", pgErr.Code == "53300":
			return apperrors.Wrap(apperrors.Unavailable, err, "%s", op)
		}
		return apperrors.Wrap(apperrors.Internal, err, "%s", op)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err),
		mongo.IsNetworkError(err),
		mongo.IsTimeout(err):
		return apperrors.Wrap(apperrors.Unavailable, err, "%s", op)
	}
	return apperrors.Wrap(apperrors.Internal, err, "%s", op)
}
