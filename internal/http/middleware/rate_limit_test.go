package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"

	"fileuploader/internal/config"
)

type fakeTokenRater struct{ limits map[string]int }

func (f fakeTokenRater) RateLimit(token string) int { return f.limits[token] }

func limiterConfig(userLimit int) config.Config {
	var cfg config.Config
	cfg.RateLimiter.Interval = time.Hour
	cfg.RateLimiter.UserLimit = userLimit
	return cfg
}

func tokenApp(rater RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if key := c.Get("X-API-Key"); key != "" {
			c.Locals(APIKeyLocal, key)
		}
		return c.Next()
	})
	app.Use(TokenRateLimit(limiterConfig(0), rater, memoryStorage.New()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func tokenReq(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("X-API-Key", token)
	}
	return req
}

func TestTokenRateLimit_Enforced(t *testing.T) {
	app := tokenApp(fakeTokenRater{limits: map[string]int{"abc": 2}})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(tokenReq("abc"), -1)
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 but got %d", resp.StatusCode)
		}
	}

	resp, err := app.Test(tokenReq("abc"), -1)
	if err != nil {
		t.Fatalf("exceed request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 but got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Too Many Requests") {
		t.Fatalf("expected JSON body to mention rate limit, got %q", string(body))
	}
}

func TestTokenRateLimit_CountersArePerToken(t *testing.T) {
	app := tokenApp(fakeTokenRater{limits: map[string]int{"a": 1, "b": 1}})

	for _, token := range []string{"a", "b"} {
		resp, err := app.Test(tokenReq(token), -1)
		if err != nil {
			t.Fatalf("request for %s failed: %v", token, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 for %s but got %d", token, resp.StatusCode)
		}
	}
}

func TestTokenRateLimit_UnlimitedAndAnonymousPass(t *testing.T) {
	app := tokenApp(fakeTokenRater{limits: map[string]int{}})

	for i := 0; i < 5; i++ {
		for _, token := range []string{"", "unlimited"} {
			resp, err := app.Test(tokenReq(token), -1)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("expected 200 for %q but got %d", token, resp.StatusCode)
			}
		}
	}
}

func TestLimiterCache_SharesHandlerPerLimit(t *testing.T) {
	lc := NewLimiterCache(time.Minute, nil)
	lc.Get(5)
	lc.Get(5)
	lc.Get(7)
	if lc.Len() != 2 {
		t.Fatalf("expected 2 limiters, got %d", lc.Len())
	}
}

func TestUserRateLimit(t *testing.T) {
	app := fiber.New()
	app.Use(UserRateLimit(limiterConfig(2), memoryStorage.New()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	makeReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		return req
	}

	for i := 0; i < 2; i++ {
		resp, err := app.Test(makeReq(), -1)
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 but got %d", resp.StatusCode)
		}
	}

	resp, err := app.Test(makeReq(), -1)
	if err != nil {
		t.Fatalf("third request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 but got %d", resp.StatusCode)
	}
}

func TestUserRateLimit_DisabledWithoutLimit(t *testing.T) {
	app := fiber.New()
	app.Use(UserRateLimit(limiterConfig(0), nil))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 10; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 but got %d", resp.StatusCode)
		}
	}
}
