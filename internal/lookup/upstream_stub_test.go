package lookup

import (
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
)

// metadataStub 是基于 fiber 的元数据服务模拟器，记录请求并按脚本返回。
type metadataStub struct {
	app *fiber.App
	URL string

	mu       sync.Mutex
	requests []recordedRequest
	// statuses 依次作为前几次请求的状态码，用尽后返回 200。
	statuses []int
	docs     map[int]map[string]any
}

type recordedRequest struct {
	AppIDs    []int
	RequestID string
	UserAgent string
}

func newMetadataStub(t *testing.T, docs map[int]map[string]any, statuses ...int) *metadataStub {
	t.Helper()

	stub := &metadataStub{docs: docs, statuses: statuses}
	app := fiber.New()
	app.Post("/v1/apps", stub.handle)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to start metadata stub listener: %v", err)
	}
	go func() {
		_ = app.Listener(listener, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})

	stub.app = app
	stub.URL = "http://" + listener.Addr().String()
	return stub
}

func (s *metadataStub) handle(c fiber.Ctx) error {
	var req appsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request"})
	}

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		AppIDs:    req.AppIDs,
		RequestID: c.Get("X-Request-ID"),
		UserAgent: c.Get("User-Agent"),
	})
	status := fiber.StatusOK
	if len(s.statuses) > 0 {
		status = s.statuses[0]
		s.statuses = s.statuses[1:]
	}
	s.mu.Unlock()

	if status != fiber.StatusOK {
		return c.Status(status).JSON(fiber.Map{"error": "scripted"})
	}

	apps := fiber.Map{}
	for _, id := range req.AppIDs {
		if doc, ok := s.docs[id]; ok {
			apps[strconv.Itoa(id)] = doc
		}
	}
	return c.JSON(fiber.Map{"apps": apps})
}

func (s *metadataStub) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]recordedRequest, len(s.requests))
	copy(result, s.requests)
	return result
}
