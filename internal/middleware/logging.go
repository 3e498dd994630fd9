package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

// SlowCall is the duration above which successful calls log at warn.
const SlowCall = time.Second

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// with its procedure, user ID, duration and outcome code. Install it inside
// RequireAuth so the user is known.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	logger := logging.Component("rpc")
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx),
				"duration_ms", elapsed.Milliseconds(),
			}
			if err != nil {
				code := connect.CodeOf(err)
				attrs = append(attrs, "code", code.String(), "error", err)
				logger.Log(ctx, levelFor(code), "RPC error", attrs...)
				return resp, err
			}

			level := slog.LevelInfo
			if elapsed > SlowCall {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "RPC ok", attrs...)
			return resp, err
		}
	}
}

// levelFor logs caller mistakes at info and server faults at error.
func levelFor(code connect.Code) slog.Level {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodeAlreadyExists,
		connect.CodePermissionDenied, connect.CodeUnauthenticated, connect.CodeFailedPrecondition,
		connect.CodeCanceled:
		return slog.LevelInfo
	case connect.CodeDeadlineExceeded, connect.CodeUnavailable:
		return slog.LevelWarn
	}
	return slog.LevelError
}
