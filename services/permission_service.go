package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"marketplace-spotlight-api/config"
	"marketplace-spotlight-api/models"
)

// Errors returned by the moderator permission admin surface.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrNotAModerator = errors.New("user is not a moderator")
)

var (
	permCacheMu sync.RWMutex
	permCache   = make(map[int]*permissionCacheEntry)
	permTTL     = time.Minute
)

type permissionCacheEntry struct {
	roleID             int
	canSpotlight       bool
	canRemoveSpotlight bool
	fetchedAt          time.Time
}

// PermissionGate decides whether an actor may run spotlight operations.
// Administrators always pass. Moderators pass only when their
// moderator_permissions row grants the capability; a moderator without
// a row is denied. Every other role is denied.
type PermissionGate interface {
	CanApplySpotlight(ctx context.Context, userID int) error
	CanRemoveSpotlight(ctx context.Context, userID int) error
}

// PermissionService implements PermissionGate against the users and
// moderator_permissions tables. Capabilities are cached in-process with
// a short TTL so bulk batches do not hit the database once per item.
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	if db == nil {
		db = config.DB
	}
	return &PermissionService{db: db}
}

func (s *PermissionService) lookup(ctx context.Context, userID int) (*permissionCacheEntry, error) {
	permCacheMu.RLock()
	cached := permCache[userID]
	permCacheMu.RUnlock()

	if cached != nil && time.Since(cached.fetchedAt) < permTTL {
		return cached, nil
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("actor %d: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load actor %d: %w", userID, err)
	}

	entry := &permissionCacheEntry{
		roleID:    user.RoleID,
		fetchedAt: time.Now(),
	}

	if user.RoleID == models.RoleIDModerator {
		var perm models.ModeratorPermission
		err := s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			First(&perm).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load moderator permissions for user %d: %w", userID, err)
		}
		if err == nil {
			entry.canSpotlight = perm.CanSpotlight
			entry.canRemoveSpotlight = perm.CanRemoveSpotlight
		}
	}

	permCacheMu.Lock()
	permCache[userID] = entry
	permCacheMu.Unlock()

	return entry, nil
}

// CanApplySpotlight gates apply and edit operations.
func (s *PermissionService) CanApplySpotlight(ctx context.Context, userID int) error {
	entry, err := s.lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("user %d cannot apply spotlights: %w", userID, ErrPermissionDenied)
		}
		return err
	}
	if entry.roleID == models.RoleIDAdministrator {
		return nil
	}
	if entry.roleID == models.RoleIDModerator && entry.canSpotlight {
		return nil
	}
	return fmt.Errorf("user %d cannot apply spotlights: %w", userID, ErrPermissionDenied)
}

// CanRemoveSpotlight gates remove, pause and resume operations.
func (s *PermissionService) CanRemoveSpotlight(ctx context.Context, userID int) error {
	entry, err := s.lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("user %d cannot remove spotlights: %w", userID, ErrPermissionDenied)
		}
		return err
	}
	if entry.roleID == models.RoleIDAdministrator {
		return nil
	}
	if entry.roleID == models.RoleIDModerator && entry.canRemoveSpotlight {
		return nil
	}
	return fmt.Errorf("user %d cannot remove spotlights: %w", userID, ErrPermissionDenied)
}

// Invalidate drops the cached capabilities for one user. Called after an
// administrator changes that user's permission row.
func (s *PermissionService) Invalidate(userID int) {
	permCacheMu.Lock()
	delete(permCache, userID)
	permCacheMu.Unlock()
}

// resetPermissionCache clears all cached capabilities. Test helper.
func resetPermissionCache() {
	permCacheMu.Lock()
	permCache = make(map[int]*permissionCacheEntry)
	permCacheMu.Unlock()
}

// GetModeratorPermissions returns the permission row for a moderator,
// or a zero grant when none has been stored yet.
func (s *PermissionService) GetModeratorPermissions(ctx context.Context, userID int) (*models.ModeratorPermission, error) {
	if err := s.requireModerator(ctx, userID); err != nil {
		return nil, err
	}

	var perm models.ModeratorPermission
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ModeratorPermission{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load moderator permissions for user %d: %w", userID, err)
	}
	return &perm, nil
}

// SetModeratorPermissions stores the capability grant for a moderator
// and drops the stale cache entry.
func (s *PermissionService) SetModeratorPermissions(ctx context.Context, userID int, req models.ModeratorPermissionRequest, grantedBy int) (*models.ModeratorPermission, error) {
	if err := s.requireModerator(ctx, userID); err != nil {
		return nil, err
	}

	var perm models.ModeratorPermission
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&perm).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load moderator permissions for user %d: %w", userID, err)
	}

	perm.UserID = userID
	perm.CanSpotlight = *req.CanSpotlight
	perm.CanRemoveSpotlight = *req.CanRemoveSpotlight
	perm.GrantedBy = &grantedBy

	if err := s.db.WithContext(ctx).Save(&perm).Error; err != nil {
		return nil, fmt.Errorf("failed to save moderator permissions for user %d: %w", userID, err)
	}

	s.Invalidate(userID)
	return &perm, nil
}

func (s *PermissionService) requireModerator(ctx context.Context, userID int) error {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user.RoleID != models.RoleIDModerator {
		return fmt.Errorf("user %d: %w", userID, ErrNotAModerator)
	}
	return nil
}
