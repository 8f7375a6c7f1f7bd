package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
	"marketplace-spotlight-api/utils"
)

// OwnerNotifier delivers spotlight updates to a listing's owner.
// Deliveries are best-effort; failures are logged, never returned.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, listing *models.Listing, title, message, notifType string)
}

// NotificationService writes in-app notification rows for listing
// owners and mails them a copy when SMTP is configured.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

func (s *NotificationService) NotifyOwner(ctx context.Context, listing *models.Listing, title, message, notifType string) {
	if listing == nil {
		return
	}

	listingID := uint(listing.ListingID)
	notif := models.Notification{
		UserID:           uint(listing.SellerID),
		Title:            title,
		Message:          message,
		Type:             notifType,
		RelatedListingID: &listingID,
		IsRead:           false,
		CreateAt:         time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&notif).Error; err != nil {
		log.Printf("notification: failed to create for user %d: %v", listing.SellerID, err)
	}

	// The mail lookup outlives the request, so it must not inherit its
	// cancellation.
	go s.mailOwner(persistentContext(ctx), listing.SellerID, title, message)
}

func (s *NotificationService) mailOwner(ctx context.Context, userID int, title, message string) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	if err != nil {
		log.Printf("notification: failed to load user %d for email: %v", userID, err)
		return
	}
	// Seller rows imported from the legacy system can carry blank or
	// malformed addresses.
	if !utils.ValidateEmail(user.Email) {
		return
	}

	html := fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", user.FullName(), message)
	if err := config.SendMail([]string{user.Email}, title, html); err != nil {
		log.Printf("notification: failed to email user %d: %v", userID, err)
	}
}
