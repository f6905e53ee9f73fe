package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"citycare-queue/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// DisplayHandler handles the public display board endpoints (no auth)
type DisplayHandler struct {
	dispatchService *services.DispatchService
	notifyService   *services.NotifyService
}

// NewDisplayHandler creates a new display handler
func NewDisplayHandler(dispatchService *services.DispatchService, notifyService *services.NotifyService) *DisplayHandler {
	return &DisplayHandler{
		dispatchService: dispatchService,
		notifyService:   notifyService,
	}
}

// LiveStatus returns the all-departments board snapshot
// @Summary Live queue status
// @Description Current token, waiting and served counts per department
// @Tags Display
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /display/status [get]
func (h *DisplayHandler) LiveStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":     true,
		"departments": h.dispatchService.GetLiveStatus(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

// DepartmentEvents streams SSE for one department's queue
// @Summary Department event stream
// @Description Server-sent events for one department (token:called, queue:updated, patient:registered)
// @Tags Display
// @Produce text/event-stream
// @Param department path string true "Department"
// @Success 200 {string} string "event stream"
// @Router /display/{department}/events [get]
func (h *DisplayHandler) DepartmentEvents(c *fiber.Ctx) error {
	department := strings.ToLower(c.Params("department"))
	return h.streamEvents(c, department)
}

// GlobalEvents streams SSE across every department (lobby TV board)
// @Summary Global event stream
// @Description Server-sent events for all departments
// @Tags Display
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /display/events [get]
func (h *DisplayHandler) GlobalEvents(c *fiber.Ctx) error {
	return h.streamEvents(c, services.GlobalChannel)
}

func (h *DisplayHandler) streamEvents(c *fiber.Ctx, channel string) error {
	clientID := fmt.Sprintf("sse-%s-%d", channel, time.Now().UnixNano())

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("Access-Control-Allow-Origin", "*")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &services.SSEClient{
			ID:         clientID,
			Department: channel,
			Channel:    make(chan services.SSEEvent, 50),
		}

		h.notifyService.Hub.Register(client)
		defer h.notifyService.Hub.Unregister(clientID)

		// Initial connection event
		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":\"%s\",\"channel\":\"%s\"}\n\n", clientID, channel)
		w.Flush()

		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				writeSSEEvent(w, event)
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", clientID)
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", clientID)
					return
				}
			}
		}
	})

	return nil
}

// writeSSEEvent writes a formatted SSE event to the writer
func writeSSEEvent(w *bufio.Writer, event services.SSEEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, payload)
}
