package tripapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"
)

// RemoteMessage is a message record as stored by the backend
type RemoteMessage struct {
	ID        string
	UserID    string
	Content   string
	Image     string
	Timestamp time.Time
}

// SendAck is the backend's acknowledgement of a sent message.
// MessageID is empty when the backend did not report one.
type SendAck struct {
	Status    string
	MessageID string
}

// GetMessages retrieves the full message list
func (c *BackendClient) GetMessages(ctx context.Context) ([]RemoteMessage, error) {
	var records []messageRecord
	if err := c.getJSON(ctx, "/getMessages", &records); err != nil {
		return nil, err
	}

	messages := make([]RemoteMessage, 0, len(records))
	for _, rec := range records {
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			ts = time.Time{} // Keep the message, just without a time
		}
		messages = append(messages, RemoteMessage{
			ID:        string(rec.MessageID),
			UserID:    string(rec.UserID),
			Content:   rec.Content,
			Image:     rec.Image,
			Timestamp: ts,
		})
	}
	return messages, nil
}

// SendMessage posts a text message
func (c *BackendClient) SendMessage(ctx context.Context, userID, content string) (*SendAck, error) {
	var ack ackResponse
	body := sendMessageRequest{UserID: userID, Content: content}
	if err := c.postJSON(ctx, "/sendMessage", body, &ack); err != nil {
		return nil, err
	}
	return &SendAck{Status: ack.Status, MessageID: string(ack.MessageID)}, nil
}

// SendMessageImage posts a message with an image encoded as a data URL
func (c *BackendClient) SendMessageImage(ctx context.Context, userID, content, imageDataURL string) (*SendAck, error) {
	var ack ackResponse
	body := sendMessageImageRequest{UserID: userID, Content: content, Image: imageDataURL}
	if err := c.postJSON(ctx, "/sendMessageImage", body, &ack); err != nil {
		return nil, err
	}
	return &SendAck{Status: ack.Status, MessageID: string(ack.MessageID)}, nil
}

// ClearChat empties the shared thread
func (c *BackendClient) ClearChat(ctx context.Context) error {
	return c.getJSON(ctx, "/clear_chat", nil)
}

// DataURL encodes raw image bytes as a base64 data URL
func DataURL(image []byte) string {
	mime := http.DetectContentType(image)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// Internal types for the chat endpoints

type messageRecord struct {
	MessageID looseString `json:"message_id"`
	UserID    looseString `json:"user_id"`
	Content   string      `json:"content"`
	Image     string      `json:"image,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type sendMessageRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type sendMessageImageRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

type ackResponse struct {
	Status    string      `json:"status"`
	MessageID looseString `json:"message_id"`
}
