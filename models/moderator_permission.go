package models

import (
	"time"
)

// ModeratorPermission grants a moderator account its spotlight
// capabilities. Administrators bypass this table entirely; a moderator
// without a row has no spotlight rights.
type ModeratorPermission struct {
	PermissionID       int       `gorm:"primaryKey;column:permission_id" json:"permission_id"`
	UserID             int       `gorm:"column:user_id;uniqueIndex" json:"user_id"`
	CanSpotlight       bool      `gorm:"column:can_spotlight;default:false" json:"can_spotlight"`
	CanRemoveSpotlight bool      `gorm:"column:can_remove_spotlight;default:false" json:"can_remove_spotlight"`
	GrantedBy          *int      `gorm:"column:granted_by" json:"granted_by,omitempty"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (ModeratorPermission) TableName() string {
	return "moderator_permissions"
}

// ModeratorPermissionRequest is the admin payload for granting or
// revoking a moderator's spotlight capabilities.
type ModeratorPermissionRequest struct {
	CanSpotlight       *bool `json:"can_spotlight" binding:"required"`
	CanRemoveSpotlight *bool `json:"can_remove_spotlight" binding:"required"`
}
