package services

import (
	"errors"

	"gorm.io/gorm"

	"CodeMart/models"
)

var ErrPostNotFound = errors.New("post not found")

type BlogService struct {
	db *gorm.DB
}

func NewBlogService(db *gorm.DB) *BlogService {
	return &BlogService{db: db}
}

func (s *BlogService) ListPublished() ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.Where("published = ?", true).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *BlogService) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post
	if err := s.db.Where("slug = ?", slug).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *BlogService) Create(post *models.Post) error {
	return s.db.Create(post).Error
}

func (s *BlogService) Update(id uint, updated models.Post) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	post.Title = updated.Title
	post.Body = updated.Body
	post.Published = updated.Published
	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *BlogService) Delete(id uint) error {
	result := s.db.Delete(&models.Post{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}
