package models

import "time"

// DestinationTag reserves a routing tag for a merchant account. Rows are
// never updated or deleted; a tag issued once is retired forever, so a tag
// can never mean two different orders.
type DestinationTag struct {
	Tag       uint32    `gorm:"column:destination_tag;primaryKey;autoIncrement:false"`
	Account   string    `gorm:"column:account;size:35;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName implements gorm's Tabler.
func (DestinationTag) TableName() string {
	return "destination_tags"
}
