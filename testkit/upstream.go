package testkit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Response 上游桩的一次脚本化响应
type Response struct {
	Status int
	Body   string
}

// OK 返回 200 响应的简写
func OK(body string) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// Fail 返回指定状态码的简写
func Fail(status int) Response {
	return Response{Status: status, Body: `{"error":"upstream failure"}`}
}

// Upstream 按脚本顺序应答的上游 HTTP 桩。
// 脚本耗尽后重复最后一条响应；Calls 返回收到的请求总数，
// 用于断言熔断短路与缓存命中确实没有发起网络调用。
type Upstream struct {
	server *httptest.Server

	mu     sync.Mutex
	script []Response
	calls  int
}

// NewUpstream 创建上游桩，生命周期由 t.Cleanup 管理
func NewUpstream(t *testing.T, script ...Response) *Upstream {
	t.Helper()
	if len(script) == 0 {
		script = []Response{OK(`{}`)}
	}

	u := &Upstream{script: script}
	u.server = httptest.NewServer(http.HandlerFunc(u.handle))
	t.Cleanup(u.server.Close)
	return u
}

func (u *Upstream) handle(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	idx := u.calls
	if idx >= len(u.script) {
		idx = len(u.script) - 1
	}
	resp := u.script[idx]
	u.calls++
	u.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

// URL 返回桩服务的基础地址
func (u *Upstream) URL() string {
	return u.server.URL
}

// Calls 返回桩收到的请求总数
func (u *Upstream) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}
