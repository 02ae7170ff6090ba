package medicine

// Medicine is one drug-catalog row, imported from the public drug-info CSV.
// Field names follow the CSV headers (ITEM_SEQ, ITEM_NAME, ...).
type Medicine struct {
	ID        uint64 `gorm:"primaryKey"`
	Seq       string `gorm:"uniqueIndex;not null" json:"seq"`
	Name      string `gorm:"index;not null" json:"name"`
	Print     string `gorm:"not null;default:''" json:"print"` // imprint text on the pill
	Shape     string `gorm:"not null;default:''" json:"shape"`
	Color     string `gorm:"not null;default:''" json:"color"`
	Type      string `gorm:"not null;default:''" json:"type"`
	Line      string `gorm:"not null;default:''" json:"line"`
	Tokenized string `gorm:"not null;default:''" json:"-"`
}
