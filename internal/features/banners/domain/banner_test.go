package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBanner(t *testing.T) {
	tests := []struct {
		name             string
		title            string
		subtitle         string
		bannerType       BannerType
		duration         int
		expectedDuration int
		expectedErr      error
	}{
		{
			name:             "Valid INFO Banner",
			title:            "Mango season",
			subtitle:         "Fresh Chaunsa in stock",
			bannerType:       BannerTypeInfo,
			duration:         60,
			expectedDuration: 60,
		},
		{
			name:       "Valid WARNING Banner",
			title:      "Delivery delays",
			subtitle:   "Rain in Lahore",
			bannerType: BannerTypeWarning,
			duration:   0,
		},
		{
			name:             "Valid DANGER Banner",
			title:            "Orders paused",
			subtitle:         "Back tomorrow",
			bannerType:       BannerTypeDanger,
			duration:         120,
			expectedDuration: 120,
		},
		{
			name:       "Negative Duration Is Permanent",
			title:      "Notice",
			bannerType: BannerTypeInfo,
			duration:   -5,
		},
		{
			name:        "Invalid Banner Type",
			title:       "Invalid",
			subtitle:    "Invalid",
			bannerType:  "INVALID",
			duration:    60,
			expectedErr: ErrInvalidBannerType,
		},
		{
			name:        "Empty Title",
			bannerType:  BannerTypeInfo,
			expectedErr: ErrEmptyTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			banner, err := NewBanner(tt.title, tt.subtitle, tt.bannerType, tt.duration)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, banner)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, banner)
				assert.Equal(t, tt.title, banner.Title)
				assert.Equal(t, tt.subtitle, banner.Subtitle)
				assert.Equal(t, tt.bannerType, banner.Type)
				assert.Equal(t, tt.expectedDuration, banner.Duration)
				assert.False(t, banner.Automatic)
				assert.False(t, banner.CreatedAt.IsZero())
			}
		})
	}
}

func TestNewOfflineBanner(t *testing.T) {
	banner := NewOfflineBanner("orders")

	assert.Equal(t, OfflineTitle, banner.Title)
	assert.Equal(t, BannerTypeWarning, banner.Type)
	assert.Contains(t, banner.Subtitle, "saved orders")
	assert.Equal(t, OfflineDuration, banner.Duration)
	assert.True(t, banner.Automatic)
}
