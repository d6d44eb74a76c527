package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/dto"
	"github.com/Bobyyy70/speede-flow-engine/internal/infrastructure/notify"
)

// streamHeartbeat période du commentaire keep-alive SSE, pour que les proxies
// intermédiaires ne ferment pas une connexion calme.
const streamHeartbeat = 25 * time.Second

// StreamHandler flux SSE des transitions commitées, une connexion par famille.
type StreamHandler struct {
	broker *notify.Broker
}

// NewStreamHandler construit le handler.
func NewStreamHandler(broker *notify.Broker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

// Stream godoc
// @Summary      Flux temps réel (SSE) des transitions d'une famille d'entité
// @Tags         workflow
// @Security     Bearer
// @Produce      text/event-stream
// @Param        type  path  string  true  "shipment | order | return"
// @Success      200  {string}  string  "event: transition / data: {record}"
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/workflow/{type}/stream [get]
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	entityType, ok := parseType(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "famille d'entité inconnue"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sub := h.broker.Subscribe(entityType)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case record, open := <-sub.C:
				if !open {
					return
				}
				payload, err := json.Marshal(dto.NewTransitionRecordResponse(record))
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: transition\nid: %d\ndata: %s\n\n", record.Seq, payload)
				// Une écriture échouée signifie client parti : on libère tout.
				if err := w.Flush(); err != nil {
					return
				}
			case <-heartbeat.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
