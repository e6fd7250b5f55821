package services

import (
	"errors"

	"gorm.io/gorm"

	"CodeMart/models"
)

var ErrProjectNotFound = errors.New("project not found")

// CatalogService manages the downloadable projects on sale.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListPublished(category string) ([]models.Project, error) {
	var projects []models.Project
	query := s.db.Where("published = ?", true).Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *CatalogService) GetBySlug(slug string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("slug = ?", slug).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *CatalogService) Create(project *models.Project) error {
	return s.db.Create(project).Error
}

func (s *CatalogService) Update(id uint, updated models.Project) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	project.Name = updated.Name
	project.Description = updated.Description
	project.Category = updated.Category
	project.PriceCents = updated.PriceCents
	project.ArchiveURL = updated.ArchiveURL
	project.Published = updated.Published
	if err := s.db.Save(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *CatalogService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		return tx.Delete(&project).Error
	})
}
