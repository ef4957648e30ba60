package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"spy-game-service/internal/app"
	"spy-game-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type topicPayload struct {
	Topic domain.Topic `json:"topic"`
}

type topicIDPayload struct {
	TopicID string `json:"topicId"`
}

type itemPayload struct {
	TopicID string `json:"topicId"`
	Item    string `json:"item"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game
// session use cases. One socket is the shared device driving one game.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		gameID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	log := logrus.WithField("gameId", gameID)

	joined, err := h.service.Join(r.Context(), gameID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), gameID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.Leave(r.Context(), gameID)

	// The subscription primes its channel with the current snapshot. The
	// joined message below already carries that state, so swallow the
	// duplicate before the forwarder starts.
	<-updates

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "session", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r.Context(), gameID, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch routes a typed command to the matching use case. Snapshots reach
// the client through the subscription, not the command response.
func (h *WSHandler) dispatch(ctx context.Context, gameID string, inbound inboundMessage) error {
	switch inbound.Type {
	case "start":
		_, err := h.service.StartGame(ctx, gameID)
		return err
	case "advance":
		_, err := h.service.Advance(ctx, gameID)
		return err
	case "finish":
		_, err := h.service.Finish(ctx, gameID)
		return err
	case "restart":
		_, err := h.service.Restart(ctx, gameID)
		return err
	case "reset":
		_, err := h.service.Reset(ctx, gameID)
		return err
	case "openLists":
		_, err := h.service.OpenListManagement(ctx, gameID)
		return err
	case "updateSettings":
		var patch domain.SettingsPatch
		if err := json.Unmarshal(inbound.Payload, &patch); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.UpdateSettings(ctx, gameID, patch)
		return err
	case "addTopic":
		var payload topicPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		if payload.Topic.ID == "" {
			payload.Topic.ID = uuid.NewString()
		}
		_, err := h.service.AddCustomTopic(ctx, gameID, payload.Topic)
		return err
	case "updateTopic":
		var payload topicPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.UpdateCustomTopic(ctx, gameID, payload.Topic)
		return err
	case "deleteTopic":
		var payload topicIDPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.DeleteCustomTopic(ctx, gameID, payload.TopicID)
		return err
	case "toggleItem":
		var payload itemPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.ToggleItem(ctx, gameID, payload.TopicID, payload.Item)
		return err
	case "addItem":
		var payload itemPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		_, err := h.service.AddItem(ctx, gameID, payload.TopicID, payload.Item)
		return err
	case "clearCustomData":
		_, err := h.service.ClearCustomData(ctx, gameID)
		return err
	default:
		return errUnsupportedType
	}
}
