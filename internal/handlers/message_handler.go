package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/realtime"
	"github.com/jobtradesasa/server/internal/services/messaging"
	"github.com/jobtradesasa/server/internal/utils"
)

type MessageHandler struct {
	DB        *gorm.DB
	Messages  *messaging.Service
	Hub       *realtime.Hub
	RDB       *redis.Client
	JWTSecret string
}

func NewMessageHandler(db *gorm.DB, svc *messaging.Service, hub *realtime.Hub, rdb *redis.Client, jwtSecret string) *MessageHandler {
	return &MessageHandler{DB: db, Messages: svc, Hub: hub, RDB: rdb, JWTSecret: jwtSecret}
}

type MessageResponse struct {
	ID           string         `json:"id"`
	JobID        string         `json:"job_id"`
	SenderID     string         `json:"sender_id"`
	Text         string         `json:"text"`
	Attachments  datatypes.JSON `json:"attachments,omitempty"`
	VoiceNoteURL string         `json:"voice_note_url,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Sender       *UserMini      `json:"sender,omitempty"`
}

func toMessageResponse(msg *models.Message) MessageResponse {
	return MessageResponse{
		ID:           msg.ID.String(),
		JobID:        msg.JobID.String(),
		SenderID:     msg.SenderID.String(),
		Text:         msg.Text,
		Attachments:  msg.Attachments,
		VoiceNoteURL: msg.VoiceNoteURL,
		CreatedAt:    msg.CreatedAt,
		Sender:       toUserMini(msg.Sender),
	}
}

// publishToUser delivers a payload to a user's live session: straight to
// the local hub when the connection is here, otherwise onto the user's
// Redis channel for whichever instance holds it. Best effort only; the
// message is already durable by the time this runs.
func publishToUser(hub *realtime.Hub, rdb *redis.Client, userID uuid.UUID, data interface{}) {
	if userID == uuid.Nil {
		return
	}
	if hub.SendToUser(userID, data) {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("publishToUser: marshal error: %v", err)
		return
	}
	if rdb != nil {
		rdb.Publish(context.Background(), realtime.UserChannel(userID), payload)
	}
}

type SendMessageReq struct {
	JobID        string         `json:"job_id"`
	Text         string         `json:"text"`
	Attachments  datatypes.JSON `json:"attachments"`
	VoiceNoteURL string         `json:"voice_note_url"`
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	msg, counterpart, err := h.Messages.Send(userUUID, messaging.SendInput{
		JobID:        jobID,
		Text:         req.Text,
		Attachments:  req.Attachments,
		VoiceNoteURL: req.VoiceNoteURL,
	})
	if err != nil {
		return respondErr(c, err)
	}

	resp := toMessageResponse(msg)
	publishToUser(h.Hub, h.RDB, counterpart, fiber.Map{
		"type":    "message",
		"payload": resp,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": resp})
}

func (h *MessageHandler) History(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	jobID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	msgs, err := h.Messages.History(jobID, userUUID)
	if err != nil {
		return respondErr(c, err)
	}

	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	out, err := h.Messages.Conversations(userUUID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

// wsFrame is both frame kinds the relay speaks: {type:"auth", token} and
// {type:"message", payload:{...}}.
type wsFrame struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	Payload struct {
		JobID        string         `json:"jobId"`
		MessageText  string         `json:"messageText"`
		Attachments  datatypes.JSON `json:"attachments,omitempty"`
		VoiceNoteURL string         `json:"voiceNoteUrl,omitempty"`
	} `json:"payload,omitempty"`
}

// WebSocketHandler runs one relay connection. The first frame must be an
// auth handshake carrying the same signed JWT the HTTP layer validates;
// only then is the connection registered for delivery.
func (h *MessageHandler) WebSocketHandler(c *websocket.Conn) {
	var first wsFrame
	if err := c.ReadJSON(&first); err != nil || first.Type != "auth" {
		log.Println("WebSocket: expected auth frame, closing")
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, first.Token)
	if err != nil {
		log.Println("WebSocket: auth failed:", err)
		c.WriteJSON(fiber.Map{"type": "error", "message": "invalid token"})
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected", userUUID)

	client := &realtime.Client{
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.Register(client)
	defer func() {
		h.Hub.Unregister(client)
		log.Printf("WebSocket: user %s disconnected", userUUID)
	}()

	// writer: hub -> socket
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// reader: socket -> store -> counterpart. Only transport errors end
	// the session; bad payloads are dropped in handleFrame.
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error for user %s: %v", userUUID, err)
			}
			break
		}
		h.handleFrame(userUUID, raw)
	}
}

// handleFrame dispatches one inbound frame. Malformed frames are logged
// and dropped; the connection stays up.
func (h *MessageHandler) handleFrame(senderID uuid.UUID, raw []byte) {
	var frame wsFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("WebSocket: malformed frame from user %s: %v", senderID, err)
		return
	}

	switch frame.Type {
	case "pong":
	case "message":
		h.handleInbound(senderID, frame)
	default:
		log.Printf("WebSocket: unknown frame type %q from user %s", frame.Type, senderID)
	}
}

func (h *MessageHandler) handleInbound(senderID uuid.UUID, frame wsFrame) {
	jobID, err := uuid.Parse(frame.Payload.JobID)
	if err != nil {
		log.Printf("WebSocket: bad jobId from user %s", senderID)
		return
	}

	// missing job: drop the frame, persist nothing
	msg, counterpart, err := h.Messages.Send(senderID, messaging.SendInput{
		JobID:        jobID,
		Text:         frame.Payload.MessageText,
		Attachments:  frame.Payload.Attachments,
		VoiceNoteURL: frame.Payload.VoiceNoteURL,
	})
	if err != nil {
		log.Printf("WebSocket: dropping message from user %s: %v", senderID, err)
		return
	}

	// the counterpart only; the sender already has the message
	publishToUser(h.Hub, h.RDB, counterpart, fiber.Map{
		"type":    "message",
		"payload": toMessageResponse(msg),
	})
}
