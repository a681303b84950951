package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"token-alert-relay/internal/config"
)

type fakeStore struct {
	deleted    []string
	failDelete bool
}

func (f *fakeStore) ReadValid(_ string) map[string]struct{} {
	return map[string]struct{}{"hash-1": {}, "hash-2": {}}
}

func (f *fakeStore) Delete(userID string) error {
	if f.failDelete {
		return errors.New("权限不足")
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeCache struct{}

func (fakeCache) Age() time.Duration {
	return 5 * time.Second
}

func newTestServer(store *fakeStore) *Server {
	cfg := config.Config{
		Port:                "0",
		OperatorIDs:         []string{"op-1"},
		AdminLimitPerWindow: 100,
		RateWindow:          time.Minute,
	}
	return NewServer(cfg, store, fakeCache{})
}

func perform(server *Server, method, path, operatorID string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, nil)
	if operatorID != "" {
		request.Header.Set("X-Operator-Id", operatorID)
	}
	recorder := httptest.NewRecorder()
	server.engine.ServeHTTP(recorder, request)
	return recorder
}

func TestDeleteSeenRequiresAuthorizedOperator(t *testing.T) {
	store := &fakeStore{}
	server := newTestServer(store)

	response := perform(server, http.MethodDelete, "/v1/admin/users/user1/seen", "")
	if response.Code != http.StatusForbidden {
		t.Fatalf("期望缺少操作员头返回 403，实际 %d", response.Code)
	}

	response = perform(server, http.MethodDelete, "/v1/admin/users/user1/seen", "op-unknown")
	if response.Code != http.StatusForbidden {
		t.Fatalf("期望未授权操作员返回 403，实际 %d", response.Code)
	}

	if len(store.deleted) != 0 {
		t.Fatal("期望未授权调用不触达存储")
	}
}

func TestDeleteSeenRemovesRecordSet(t *testing.T) {
	store := &fakeStore{}
	server := newTestServer(store)

	response := perform(server, http.MethodDelete, "/v1/admin/users/user1/seen", "op-1")
	if response.Code != http.StatusOK {
		t.Fatalf("期望删除成功返回 200，实际 %d, body=%s", response.Code, response.Body.String())
	}
	if len(store.deleted) != 1 || store.deleted[0] != "user1" {
		t.Fatalf("期望删除 user1 的记录集，实际 %v", store.deleted)
	}
}

func TestDeleteSeenReportsStorageFailure(t *testing.T) {
	store := &fakeStore{failDelete: true}
	server := newTestServer(store)

	response := perform(server, http.MethodDelete, "/v1/admin/users/user1/seen", "op-1")
	if response.Code != http.StatusBadGateway {
		t.Fatalf("期望存储失败上报给调用方，实际 %d", response.Code)
	}
}

func TestGetSeenReturnsCount(t *testing.T) {
	server := newTestServer(&fakeStore{})

	response := perform(server, http.MethodGet, "/v1/admin/users/user1/seen", "op-1")
	if response.Code != http.StatusOK {
		t.Fatalf("期望查询成功返回 200，实际 %d", response.Code)
	}
	if !strings.Contains(response.Body.String(), `"count":2`) {
		t.Fatalf("期望返回有效指纹数量，body=%s", response.Body.String())
	}
}

func TestHealthzReportsCacheAge(t *testing.T) {
	server := newTestServer(&fakeStore{})

	response := perform(server, http.MethodGet, "/v1/healthz", "")
	if response.Code != http.StatusOK {
		t.Fatalf("期望健康检查返回 200，实际 %d", response.Code)
	}
	if !strings.Contains(response.Body.String(), "token_cache_age_ms") {
		t.Fatalf("期望返回缓存年龄，body=%s", response.Body.String())
	}
}
