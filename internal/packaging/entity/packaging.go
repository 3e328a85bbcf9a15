package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 包装项状态
const (
	PackagingStatusDraft       = "DRAFT"
	PackagingStatusActive      = "ACTIVE"
	PackagingStatusInactive    = "INACTIVE"
	PackagingStatusDeactivated = "DEACTIVATED"
)

// 合规文档类型
const (
	DocumentTypeConformityDeclaration  = "CONFORMITY_DECLARATION"
	DocumentTypeTechnicalDocumentation = "TECHNICAL_DOCUMENTATION"
)

// PackagingItem 包装项（聚合根）
type PackagingItem struct {
	ID           string                      `json:"id" gorm:"primaryKey;size:36"`
	Name         string                      `json:"name" gorm:"size:256;not null"`
	InternalCode string                      `json:"internalCode" gorm:"size:64;not null;index"`
	Materials    datatypes.JSONSlice[string] `json:"materials"`
	Status       string                      `json:"status" gorm:"size:16;not null;default:DRAFT"`
	Weight       string                      `json:"weight" gorm:"size:64;not null"`
	PPWRLevel    string                      `json:"ppwrLevel" gorm:"column:ppwr_level;size:64;not null"`
	CreatedAt    time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time                   `json:"updatedAt"`

	// Relations
	Components []PackagingComponent `json:"components" gorm:"foreignKey:PackagingItemID;constraint:OnDelete:CASCADE"`
	Documents  []PackagingDocument  `json:"documents" gorm:"foreignKey:PackagingItemID;constraint:OnDelete:CASCADE"`
}

func (PackagingItem) TableName() string {
	return "packaging_items"
}

// PackagingComponent 包装组件，归属于唯一的包装项
type PackagingComponent struct {
	ID                   string    `json:"id" gorm:"primaryKey;size:36"`
	PackagingItemID      string    `json:"packagingItemId" gorm:"size:36;not null;index"`
	Name                 string    `json:"name" gorm:"size:256;not null"`
	Format               string    `json:"format" gorm:"size:128;not null"`
	Weight               string    `json:"weight" gorm:"size:64;not null"`
	Volume               string    `json:"volume" gorm:"size:64;not null"`
	PPWRCategory         string    `json:"ppwrCategory" gorm:"column:ppwr_category;size:128;not null"`
	PPWRLevel            string    `json:"ppwrLevel" gorm:"column:ppwr_level;size:64;not null"`
	Quantity             int       `json:"quantity" gorm:"not null"`
	Supplier             string    `json:"supplier" gorm:"size:256;not null"`
	ManufacturingProcess string    `json:"manufacturingProcess" gorm:"size:256;not null"`
	Color                string    `json:"color" gorm:"size:64;not null"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (PackagingComponent) TableName() string {
	return "packaging_components"
}

// PackagingDocument 合规文档元数据，文件本体保存在文件存储中
type PackagingDocument struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	PackagingItemID string    `json:"packagingItemId" gorm:"size:36;not null;index"`
	Type            string    `json:"type" gorm:"size:32;not null"`
	Name            string    `json:"name" gorm:"size:256;not null"`
	StoragePath     string    `json:"-" gorm:"size:512;not null"`
	FileURL         string    `json:"fileUrl" gorm:"-"`
	FileSize        int64     `json:"fileSize" gorm:"default:0"`
	MimeType        string    `json:"mimeType" gorm:"size:128"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (PackagingDocument) TableName() string {
	return "packaging_documents"
}

// IsValidPackagingStatus 校验包装项状态
func IsValidPackagingStatus(s string) bool {
	switch s {
	case PackagingStatusDraft, PackagingStatusActive, PackagingStatusInactive, PackagingStatusDeactivated:
		return true
	}
	return false
}

// IsValidDocumentType 校验文档类型
func IsValidDocumentType(t string) bool {
	return t == DocumentTypeConformityDeclaration || t == DocumentTypeTechnicalDocumentation
}
