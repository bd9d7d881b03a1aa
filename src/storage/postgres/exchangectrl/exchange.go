package exchangectrl

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Exchange outcome statuses.
const (
	StatusAnswered   = "answered"
	StatusTooComplex = "too_complex"
	StatusFailed     = "failed"
)

// Exchange is one audited question/answer pair across any chat transport.
type Exchange struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Platform  string    `gorm:"not null" json:"platform"`
	UserID    string    `gorm:"not null;column:user_id" json:"user_id"`
	Question  string    `gorm:"not null;type:text" json:"question"`
	Answer    string    `gorm:"type:text" json:"answer"`
	Status    string    `gorm:"not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExchangeService struct {
	db        *gorm.DB
	snowflake *snowflake.Node
}

func NewExchangeService(db *gorm.DB) (*ExchangeService, error) {
	// Initialize snowflake node
	node, err := snowflake.NewNode(3) // Node number 3 for exchanges
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}

	if err := db.AutoMigrate(&Exchange{}); err != nil {
		return nil, fmt.Errorf("failed to migrate exchanges table: %v", err)
	}

	return &ExchangeService{
		db:        db,
		snowflake: node,
	}, nil
}

func (s *ExchangeService) Create(ctx context.Context, platform, userID, question, answer, status string) (*Exchange, error) {
	exchange := &Exchange{
		ID:       s.snowflake.Generate().Int64(),
		Platform: platform,
		UserID:   userID,
		Question: question,
		Answer:   answer,
		Status:   status,
	}

	result := s.db.WithContext(ctx).Create(exchange)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create exchange: %v", result.Error)
	}

	return exchange, nil
}

func (s *ExchangeService) List(ctx context.Context, limit, offset int) ([]Exchange, error) {
	var exchanges []Exchange
	result := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&exchanges)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list exchanges: %v", result.Error)
	}
	return exchanges, nil
}
