package services

import (
	"context"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/pkg/logger"
	"gorm.io/gorm"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry. A nil service is a disabled sink. A failed
// write is logged and swallowed so the mutation it describes never rolls
// back over its own paper trail.
func (s *AuditService) Log(ctx context.Context, actorID uint, action, entity string, entityID uint, details, ip, userAgent string) error {
	if s == nil {
		return nil
	}
	logEntry := &models.AuditLog{
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.db.WithContext(ctx).Create(logEntry).Error; err != nil {
		logger.Error("Failed to write audit log", "entity", entity, "entity_id", entityID, "error", err)
		return err
	}
	return nil
}

// List retrieves audit logs, newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}
