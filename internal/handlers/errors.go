package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.UnknownUser:     http.StatusNotFound,
	apperrors.UnknownPost:     http.StatusNotFound,
	apperrors.SelfFollow:      http.StatusUnprocessableEntity,
	apperrors.EmptyComment:    http.StatusUnprocessableEntity,
	apperrors.CommentTooLong:  http.StatusUnprocessableEntity,
	apperrors.InvalidArgument: http.StatusBadRequest,
	apperrors.Conflict:        http.StatusConflict,
	apperrors.Unavailable:     http.StatusServiceUnavailable,
	apperrors.Unauthenticated: http.StatusUnauthorized,
	apperrors.Forbidden:       http.StatusForbidden,
	apperrors.Internal:        http.StatusInternalServerError,
}

// fail turns err into the JSON error envelope clients reconcile against:
// {"success": false, "error": {"kind", "message", "retryable"}}.
func fail(err error) *echo.HTTPError {
	kind := apperrors.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	message := "internal error"
	var appErr *apperrors.Error
	if kind != apperrors.Internal && errors.As(err, &appErr) {
		message = appErr.Message
	}
	he := echo.NewHTTPError(status, echo.Map{
		"success": false,
		"error": echo.Map{
			"kind":      kind,
			"message":   message,
			"retryable": apperrors.Retryable(err),
		},
	})
	he.Internal = err
	return he
}

// HTTPErrorHandler renders apperrors raised outside handlers, such as by the
// auth middleware, in the same envelope. Everything else goes to echo's
// default handler.
func HTTPErrorHandler(e *echo.Echo, log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		var appErr *apperrors.Error
		if !errors.As(err, &he) && errors.As(err, &appErr) {
			he = fail(err)
			err = he
		}
		code := http.StatusInternalServerError
		if he != nil {
			code = he.Code
		}
		if code >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Int("status", code).Msg("request failed")
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// bind decodes and validates the request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fail(apperrors.Wrap(apperrors.InvalidArgument, err, "invalid request payload"))
	}
	if err := c.Validate(req); err != nil {
		return fail(err)
	}
	return nil
}

// pageParams reads the cursor and limit query parameters. A missing limit is
// 0, which the stores replace with their default page size.
func pageParams(c echo.Context) (string, int, error) {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", 0, fail(apperrors.New(apperrors.InvalidArgument, "limit must be a non-negative integer"))
		}
		limit = n
	}
	return c.QueryParam("cursor"), limit, nil
}

func requireQuery(c echo.Context, name string) (string, error) {
	v := c.QueryParam(name)
	if v == "" {
		return "", fail(apperrors.New(apperrors.InvalidArgument, "%s is required", name))
	}
	return v, nil
}
