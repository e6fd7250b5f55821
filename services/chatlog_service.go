package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"CodeMart/kafka"
	"CodeMart/models"
)

var (
	ErrChatSessionNotFound = errors.New("chat session not found")
	ErrNoAutoResponse      = errors.New("no auto-response matches")
)

// ChatLogService is the REST-backed persistence surface for chat. It is a
// write path separate from the live socket coordinator: the coordinator never
// calls it, clients and back-office tooling do.
type ChatLogService struct {
	db       *gorm.DB
	producer *kafka.Producer
	topic    string
}

func NewChatLogService(db *gorm.DB, producer *kafka.Producer, topic string) *ChatLogService {
	return &ChatLogService{db: db, producer: producer, topic: topic}
}

// CreateMessage persists one message, creating the session row on first
// write and keeping its last-message/unread bookkeeping current.
func (s *ChatLogService) CreateMessage(msg *models.ChatMessage, visitorName, visitorEmail string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.ChatSession
		err := tx.Where("session_key = ?", msg.SessionKey).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			session = models.ChatSession{
				SessionKey:   msg.SessionKey,
				VisitorName:  visitorName,
				VisitorEmail: visitorEmail,
				Status:       "active",
			}
			if err := tx.Create(&session).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		session.LastMessage = msg.Content
		session.UpdatedAt = time.Now()
		if msg.SenderKind == "visitor" {
			session.UnreadCount++
		}
		return tx.Save(&session).Error
	})
	if err != nil {
		return err
	}

	if s.producer != nil {
		event := kafka.MessageEvent{
			SessionKey: msg.SessionKey,
			AuthorID:   msg.AuthorID,
			SenderKind: msg.SenderKind,
			Content:    msg.Content,
		}
		if err := s.producer.PublishChatMessage(s.topic, event); err != nil {
			log.Printf("Failed to publish chat message event: %v", err)
		}
	}
	return nil
}

func (s *ChatLogService) ListMessages(sessionKey string, limit, offset int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var messages []models.ChatMessage
	err := s.db.Where("session_key = ?", sessionKey).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flags every message in the session as read and zeroes the
// session's unread counter.
func (s *ChatLogService) MarkRead(sessionKey string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.ChatSession
		if err := tx.Where("session_key = ?", sessionKey).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChatSessionNotFound
			}
			return err
		}
		if err := tx.Model(&models.ChatMessage{}).
			Where("session_key = ? AND read = ?", sessionKey, false).
			Update("read", true).Error; err != nil {
			return err
		}
		session.UnreadCount = 0
		return tx.Save(&session).Error
	})
}

func (s *ChatLogService) ListActiveSessions() ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := s.db.Where("status = ?", "active").
		Order("updated_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *ChatLogService) CloseSession(sessionKey string) error {
	result := s.db.Model(&models.ChatSession{}).
		Where("session_key = ?", sessionKey).
		Update("status", "closed")
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChatSessionNotFound
	}
	return nil
}

// FindAutoResponse returns the stored reply whose keyword occurs in text.
// This keyword table is evaluated independently of the live path's
// configured rules.
func (s *ChatLogService) FindAutoResponse(text string) (*models.AutoResponse, error) {
	var responses []models.AutoResponse
	if err := s.db.Order("id ASC").Find(&responses).Error; err != nil {
		return nil, err
	}
	lowered := strings.ToLower(text)
	for i := range responses {
		if strings.Contains(lowered, strings.ToLower(responses[i].Keyword)) {
			return &responses[i], nil
		}
	}
	return nil, ErrNoAutoResponse
}
