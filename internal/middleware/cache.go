package middleware

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/thebandproject/bandsite/internal/config"
)

// cachedResponse is what gets stored per key.  Headers are kept so a hit is
// byte-for-byte what the handler wrote.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

// captureWriter tees the body into a buffer while writing it to the client.
// Once the body outgrows limit, it stops buffering and marks itself
// uncacheable.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

func cacheKey(prefix string, c echo.Context) string {
	sum := blake2b.Sum256([]byte(c.Request().URL.Path + "?" + c.Request().URL.RawQuery))
	return prefix + ":" + hex.EncodeToString(sum[:16])
}

// ResponseCache caches successful GET responses in Redis for cfg.TTL.  It is
// a pass-through when caching is disabled or rdb is nil.  Redis errors are
// logged and treated as a miss.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			raw, err := rdb.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					return writeCached(c, hit)
				}
			case err != redis.Nil:
				log.WithError(err).WithField("key", key).Warn("response cache read failed")
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow || noStore(c.Response().Header()) {
				return nil
			}

			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			hdr.Del(echo.HeaderContentLength)
			payload, err := json.Marshal(cachedResponse{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err(); err != nil {
				log.WithError(err).WithField("key", key).Warn("response cache write failed")
			}
			return nil
		}
	}
}

func writeCached(c echo.Context, r cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range r.Header {
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(r.Status)
	_, err := c.Response().Write(r.Body)
	return err
}

func noStore(h http.Header) bool {
	cc := strings.ToLower(h.Get(echo.HeaderCacheControl))
	return strings.Contains(cc, "no-store") || strings.Contains(cc, "private")
}
