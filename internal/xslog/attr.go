package xslog

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

func Error(err error) slog.Attr {
	const errorKey = "error"
	return slog.String(errorKey, err.Error())
}

func RequestID(requestID string) slog.Attr {
	const requestIDKey = "request_id"
	return slog.String(requestIDKey, requestID)
}

func UserID(userID string) slog.Attr {
	const userIDKey = "user_id"
	return slog.String(userIDKey, userID)
}

func Stack() slog.Attr {
	const stackKey = "stack"
	return slog.String(stackKey, string(debug.Stack()))
}

func HTTPStatus(status int) slog.Attr {
	const statusKey = "status"
	return slog.Int(statusKey, status)
}

func Duration(duration time.Duration) slog.Attr {
	const durationKey = "duration"
	return slog.Duration(durationKey, duration)
}

func RequestMethod(r *http.Request) slog.Attr {
	const methodKey = "method"
	return slog.String(methodKey, r.Method)
}

func RequestPath(r *http.Request) slog.Attr {
	const pathKey = "path"
	return slog.String(pathKey, r.URL.Path)
}

func Count(count int) slog.Attr {
	const countKey = "count"
	return slog.Int(countKey, count)
}

func Start(t time.Time) slog.Attr {
	const startKey = "start"
	return slog.Time(startKey, t)
}

func End(t time.Time) slog.Attr {
	const endKey = "end"
	return slog.Time(endKey, t)
}

func Collection(name string) slog.Attr {
	const collectionKey = "collection"
	return slog.String(collectionKey, name)
}

func Signal(signal string) slog.Attr {
	const signalKey = "signal"
	return slog.String(signalKey, signal)
}

func Bpm(bpm float64) slog.Attr {
	const bpmKey = "bpm"
	return slog.Float64(bpmKey, bpm)
}

func Pages(pages int) slog.Attr {
	const pagesKey = "pages"
	return slog.Int(pagesKey, pages)
}

func Interval(d time.Duration) slog.Attr {
	const intervalKey = "interval"
	return slog.Duration(intervalKey, d)
}

func OAuthError(code, description string) slog.Attr {
	const oauthErrorKey = "oauth_error"
	return slog.Group(oauthErrorKey,
		slog.String("code", code),
		slog.String("description", description),
	)
}

func IP(ip string) slog.Attr {
	const ipKey = "ip"
	return slog.String(ipKey, ip)
}
