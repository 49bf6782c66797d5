package domain

import (
	"errors"
	"fmt"
	"time"
)

// BannerType represents the severity/type of the banner.
type BannerType string

const (
	BannerTypeInfo    BannerType = "INFO"
	BannerTypeWarning BannerType = "WARNING"
	BannerTypeDanger  BannerType = "DANGER"
)

const (
	// OfflineTitle is the title of the banner raised when data is served from the local cache.
	OfflineTitle = "Offline mode"
	// OfflineDuration bounds how long an offline notice outlives the last failed read.
	OfflineDuration = 300
)

var (
	ErrInvalidBannerType = errors.New("invalid banner type")
	ErrEmptyTitle        = errors.New("banner title is required")
)

// Banner represents a site-wide alert.
type Banner struct {
	Title     string     `json:"title"`
	Subtitle  string     `json:"subtitle"`
	Type      BannerType `json:"type"`
	Duration  int        `json:"duration,omitempty"` // Duration in seconds. 0 means permanent (until manually deleted).
	Automatic bool       `json:"automatic"`          // Raised by the service itself, not by an admin.
	CreatedAt time.Time  `json:"created_at"`
}

// NewBanner creates a new Banner and validates it.
func NewBanner(title, subtitle string, bannerType BannerType, duration int) (*Banner, error) {
	if bannerType != BannerTypeInfo && bannerType != BannerTypeWarning && bannerType != BannerTypeDanger {
		return nil, ErrInvalidBannerType
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if duration < 0 {
		duration = 0
	}

	return &Banner{
		Title:     title,
		Subtitle:  subtitle,
		Type:      bannerType,
		Duration:  duration,
		CreatedAt: time.Now(),
	}, nil
}

// NewOfflineBanner builds the notice shown while source is served from the local cache.
func NewOfflineBanner(source string) *Banner {
	return &Banner{
		Title:     OfflineTitle,
		Subtitle:  fmt.Sprintf("Showing saved %s. Changes will sync when the connection returns.", source),
		Type:      BannerTypeWarning,
		Duration:  OfflineDuration,
		Automatic: true,
		CreatedAt: time.Now(),
	}
}
