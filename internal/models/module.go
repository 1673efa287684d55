package models

import "time"

// MaxThumbnailSize is the largest thumbnail the modules table can hold (MEDIUMBLOB)
const MaxThumbnailSize = 1<<24 - 1

// Module represents a top-level training module document
type Module struct {
	ID                int       `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Thumbnail         []byte    `json:"-"`
	ThumbnailMimeType string    `json:"thumbnailMimeType,omitempty"`
	Units             []Unit    `json:"units"`
	CreatedBy         string    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ModuleListItem represents a module in list responses (without thumbnail bytes)
type ModuleListItem struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	HasThumbnail bool   `json:"hasThumbnail"`
	UnitCount    int    `json:"unitCount"`
	CreatedBy    string `json:"createdBy"`
}

// Unit represents an ordered subdivision of a module.
// UnitID always equals the unit's position in the module's unit list.
type Unit struct {
	UnitID      int    `json:"unitId"`
	Title       string `json:"title"`
	Instruction string `json:"instruction,omitempty"`
	Items       []Item `json:"items"`
}

// CreateModuleRequest represents a request to create a module
type CreateModuleRequest struct {
	Title             string
	Description       string
	Thumbnail         []byte
	ThumbnailMimeType string
	CreatedBy         string
}

// CommitUnitRequest represents a request to commit the staged unit
type CommitUnitRequest struct {
	Title       string `json:"title"`
	Instruction string `json:"instruction"`
}

// CommitUnitResponse is returned after a successful unit commit
type CommitUnitResponse struct {
	ModuleID int `json:"moduleId"`
	UnitID   int `json:"unitId"`
}
