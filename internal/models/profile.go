package models

import (
	"gorm.io/datatypes"
)

// Profile is the optional descriptive attachment of an Account. It shares the
// account's id as its own primary key (1:1 extension, created together with
// the account, deleted with it).
type Profile struct {
	AccountID    int64             `gorm:"primaryKey" json:"account_id"`
	FullName     *string           `gorm:"size:128" json:"full_name"`
	Phone        *string           `gorm:"size:32" json:"phone"`
	Email        *string           `gorm:"size:255" json:"email"`
	Age          *int              `json:"age"`
	Gender       *string           `gorm:"size:16" json:"gender"`
	DisplayName  *string           `gorm:"size:128" json:"display_name"`
	Address      *string           `gorm:"size:255" json:"address"`
	ExtraProfile datatypes.JSONMap `gorm:"type:jsonb" json:"extra_profile"`
}

func (Profile) TableName() string {
	return "account_profiles"
}

// Extra returns the value stored under key in the open extra_profile mapping.
func (p *Profile) Extra(key string) (interface{}, bool) {
	if p.ExtraProfile == nil {
		return nil, false
	}
	v, ok := p.ExtraProfile[key]
	return v, ok
}
