package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/worklink/internal/model"
)

// --- GeneralMiddleware (API全般) のテスト ---

func newGeneralRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	ctx := ContextWithIdentity(req.Context(), userID, model.RoleJobSeeker)
	return req.WithContext(ctx)
}

func TestGeneralMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2, // 2 req/sec
		GeneralBurst:    5, // バースト5
		AuthRate:        1, // 未使用
		AuthBurst:       10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handlerCallCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newGeneralRequest("user-1"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestGeneralMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1, // 1 req/sec
		GeneralBurst:    2, // バースト2
		AuthRate:        1,
		AuthBurst:       10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// バースト分（2回）は通る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newGeneralRequest("user-rate-limit"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	// 3回目はレート制限に引っかかる
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGeneralRequest("user-rate-limit"))

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusTooManyRequests)
	}
}

func TestGeneralMiddleware_Returns429WithRetryAfterHeader(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1, // 1 req/sec
		GeneralBurst:    1, // バースト1
		AuthRate:        1,
		AuthBurst:       10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 1回目は通る
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGeneralRequest("user-retry-after"))

	// 2回目は429になる
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, newGeneralRequest("user-retry-after"))

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}

	retryAfter := w2.Result().Header.Get("Retry-After")
	if retryAfter == "" {
		t.Fatal("expected Retry-After header to be present")
	}

	// Retry-Afterは数値（秒）であること
	retrySeconds, err := strconv.Atoi(retryAfter)
	if err != nil {
		t.Errorf("Retry-After header should be a number, got %q", retryAfter)
	}
	if retrySeconds < 1 {
		t.Errorf("Retry-After = %d, should be at least 1", retrySeconds)
	}
}

func TestGeneralMiddleware_IsolatesUserRateLimits(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1, // 1 req/sec
		GeneralBurst:    1, // バースト1
		AuthRate:        1,
		AuthBurst:       10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// ユーザーAの1回目は通る
	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, newGeneralRequest("user-A"))

	if wA.Result().StatusCode != http.StatusOK {
		t.Errorf("user-A first request: status = %d, want %d", wA.Result().StatusCode, http.StatusOK)
	}

	// ユーザーAの2回目は429
	wA2 := httptest.NewRecorder()
	handler.ServeHTTP(wA2, newGeneralRequest("user-A"))

	if wA2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("user-A second request: status = %d, want %d", wA2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// ユーザーBの1回目は通る（ユーザーAのレートに影響されない）
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, newGeneralRequest("user-B"))

	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("user-B first request: status = %d, want %d", wB.Result().StatusCode, http.StatusOK)
	}
}

func TestGeneralMiddleware_NoUserID_Returns401(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		AuthRate:        1,
		AuthBurst:       10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called without user ID")
	}))

	// コンテキストにユーザーIDがない場合は401
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- AuthMiddleware (認証エンドポイント) のテスト ---

func newAuthRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestAuthRateLimit_AllowsRequestsWithinLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     100, // 高い値（制限に引っかからないように）
		GeneralBurst:    200,
		AuthRate:        1, // 1 req/sec
		AuthBurst:       3, // バースト3
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.AuthMiddleware()

	handlerCallCount := 0
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の3リクエストは全て通る
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newAuthRequest("203.0.113.10:54321"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 3 {
		t.Errorf("handler call count = %d, want 3", handlerCallCount)
	}
}

func TestAuthRateLimit_Returns429WhenLimitExceeded(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    200,
		AuthRate:        1, // 1 req/sec
		AuthBurst:       1, // バースト1
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.AuthMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 1回目は通る
	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, newAuthRequest("203.0.113.20:54321"))

	if w1.Result().StatusCode != http.StatusOK {
		t.Errorf("request 1: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
	}

	// 2回目は429
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, newAuthRequest("203.0.113.20:54321"))

	if w2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("request 2: status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
	}

	retryAfter := w2.Result().Header.Get("Retry-After")
	if retryAfter == "" {
		t.Error("expected Retry-After header to be present")
	}
}

func TestAuthRateLimit_IsolatesClientIPs(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    200,
		AuthRate:        1,
		AuthBurst:       1, // バースト1
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.AuthMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// IP Aのバーストを消費
	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, newAuthRequest("198.51.100.1:1000"))

	// 同一IP・別ポートは同じクライアントとして扱う
	wA2 := httptest.NewRecorder()
	handler.ServeHTTP(wA2, newAuthRequest("198.51.100.1:2000"))

	if wA2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("same IP second request: status = %d, want %d", wA2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// 別IPは影響を受けない
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, newAuthRequest("198.51.100.2:1000"))

	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("different IP: status = %d, want %d", wB.Result().StatusCode, http.StatusOK)
	}
}

func TestAuthRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	generalMW := rl.GeneralMiddleware()
	authMW := rl.AuthMiddleware()

	// General MWでリクエスト（バーストを消費）
	generalHandler := generalMW(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w1 := httptest.NewRecorder()
	generalHandler.ServeHTTP(w1, newGeneralRequest("user-indep"))

	// General limitは使い果たした。認証エンドポイントのlimitはまだ使える
	authHandler := authMW(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w2 := httptest.NewRecorder()
	authHandler.ServeHTTP(w2, newAuthRequest("203.0.113.30:443"))

	if w2.Result().StatusCode != http.StatusOK {
		t.Errorf("auth endpoint should still be allowed: status = %d, want %d",
			w2.Result().StatusCode, http.StatusOK)
	}
}

// --- 429レスポンスフォーマットのテスト ---

func TestGeneralMiddleware_429ResponseIsJSON(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		AuthRate:        1,
		AuthBurst:       10,
		CleanupInterval: 1 * time.Minute,
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// バースト消費
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGeneralRequest("user-json-test"))

	// 429レスポンス
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, newGeneralRequest("user-json-test"))

	resp := w2.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want %q", contentType, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body["code"] == "" {
		t.Error("expected 'code' field in error response")
	}
	if body["message"] == "" {
		t.Error("expected 'message' field in error response")
	}
	if body["category"] == "" {
		t.Error("expected 'category' field in error response")
	}
}

// --- クリーンアップのテスト ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := RateLimiterConfig{
		GeneralRate:     2,
		GeneralBurst:    5,
		AuthRate:        1,
		AuthBurst:       10,
		CleanupInterval: 50 * time.Millisecond, // テスト用に短く
	}

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	mw := rl.GeneralMiddleware()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// ユーザーのリクエストを発行してエントリを作成
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newGeneralRequest("user-cleanup"))

	// エントリが存在することを確認
	if rl.GeneralLimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// クリーンアップが実行されるのを待つ
	// エントリのTTLはCleanupIntervalの2倍（50ms * 2 = 100ms）
	// 200ms待てば削除されるはず
	time.Sleep(200 * time.Millisecond)

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

// --- デフォルト設定値のテスト ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 { // 120/60 = 2
		t.Errorf("GeneralRate = %f, want 2.0", float64(cfg.GeneralRate))
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.AuthRate == 0 {
		t.Error("AuthRate should not be 0")
	}
	if cfg.AuthBurst != 10 {
		t.Errorf("AuthBurst = %d, want 10", cfg.AuthBurst)
	}
	if cfg.CleanupInterval <= 0 {
		t.Error("CleanupInterval should be positive")
	}
}
