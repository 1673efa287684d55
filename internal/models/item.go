package models

// ItemType represents the kind of content held by an item
type ItemType string

const (
	ItemTypeVideo ItemType = "video"
	ItemTypeFile  ItemType = "file"
	ItemTypeQuiz  ItemType = "quiz"
)

// IsValid reports whether the item type is one of the known kinds
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeVideo, ItemTypeFile, ItemTypeQuiz:
		return true
	default:
		return false
	}
}

// RequiresFile reports whether items of this type must reference an uploaded blob
func (t ItemType) RequiresFile() bool {
	return t == ItemTypeVideo || t == ItemTypeFile
}

// Item is a single piece of content within a unit.
// Video and file items carry the blob reference fields, quiz items carry Quiz.
type Item struct {
	ItemID      int            `json:"itemId"`
	Title       string         `json:"title"`
	Type        ItemType       `json:"type"`
	Instruction string         `json:"instruction,omitempty"`
	FileID      string         `json:"fileId,omitempty"`
	Filename    string         `json:"filename,omitempty"`
	MimeType    string         `json:"mimeType,omitempty"`
	Quiz        []QuizQuestion `json:"quiz,omitempty"`
}

// UploadedFile is a file received together with an add-item request
type UploadedFile struct {
	Filename string
	MimeType string
	Data     []byte
}

// AddItemRequest represents a request to stage a new item
type AddItemRequest struct {
	Title       string
	Type        ItemType
	Instruction string
	Files       []UploadedFile
}
