package services

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"CodeMart/kafka"
	"CodeMart/models"
)

var (
	ErrCouponInvalid = errors.New("coupon is invalid or expired")
	ErrOrderNotFound = errors.New("order not found")
)

type OrderService struct {
	db       *gorm.DB
	producer *kafka.Producer
	topic    string
}

// NewOrderService wires the order write path. producer may be nil when Kafka
// is not configured; events are then skipped.
func NewOrderService(db *gorm.DB, producer *kafka.Producer, topic string) *OrderService {
	return &OrderService{db: db, producer: producer, topic: topic}
}

func (s *OrderService) CreateOrder(user *models.User, projectID uint, couponCode string) (*models.Order, error) {
	var project models.Project
	if err := s.db.Where("published = ?", true).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	amount := project.PriceCents
	if couponCode != "" {
		var coupon models.Coupon
		err := s.db.Where("code = ? AND active = ?", couponCode, true).First(&coupon).Error
		if err != nil || coupon.ExpiresAt.Before(time.Now()) {
			return nil, ErrCouponInvalid
		}
		amount = amount * (100 - coupon.PercentOff) / 100
	}

	order := models.Order{
		UserID:      user.ID,
		ProjectID:   project.ID,
		CouponCode:  couponCode,
		AmountCents: amount,
		Status:      "pending",
	}
	if err := s.db.Create(&order).Error; err != nil {
		return nil, err
	}

	if s.producer != nil {
		event := kafka.OrderEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			ProjectID:   order.ProjectID,
			AmountCents: order.AmountCents,
			Status:      order.Status,
		}
		if err := s.producer.PublishOrder(s.topic, project.Slug, event); err != nil {
			log.Printf("Failed to publish order event: %v", err)
		}
	}

	return &order, nil
}

func (s *OrderService) ListByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Project").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) Get(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Project").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}
