package entity

import "time"

// FreshnessCondition is the outcome of a freshness assessment.
type FreshnessCondition string

const (
	FreshnessFresh   FreshnessCondition = "Fresh"
	FreshnessSpoiled FreshnessCondition = "Spoiled"
)

// ImageType tells what an image is attached to.
type ImageType string

const (
	ImageDonation     ImageType = "donation"
	ImageVerification ImageType = "verification"
)

// ImageRecord describes an uploaded photo. The bytes live in blob storage
// under BlobKey; URL and ThumbnailURL are the paths clients fetch them from.
type ImageRecord struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	BlobKey      string         `json:"blobKey"`
	ThumbnailKey string         `json:"thumbnailKey,omitempty"`
	ContentType  string         `json:"contentType"`
	UploadedAt   time.Time      `json:"uploadedAt"`
	UploadedBy   string         `json:"uploadedBy"`
	Type         ImageType      `json:"type"`
	AssociatedID string         `json:"associatedId"`
	Metadata     *ImageMetadata `json:"metadata,omitempty"`
}

type ImageMetadata struct {
	OriginalFilename string        `json:"originalFilename,omitempty"`
	FileSize         int64         `json:"fileSize,omitempty"`
	Width            int           `json:"width,omitempty"`
	Height           int           `json:"height,omitempty"`
	MLAssessment     *MLAssessment `json:"mlAssessment,omitempty"`
}

// MLAssessment is the stored result of a freshness check on an image.
type MLAssessment struct {
	Condition          FreshnessCondition `json:"condition"`
	Confidence         float64            `json:"confidence"`
	FoodType           string             `json:"foodType,omitempty"`
	FoodTypeConfidence float64            `json:"foodTypeConfidence,omitempty"`
	AssessedAt         time.Time          `json:"assessedAt"`
}

// Assessment is what a freshness assessor reports for a photo.
type Assessment struct {
	Condition  FreshnessCondition `json:"condition"`
	Confidence float64            `json:"confidence"`
	// Label is the assessor's own wording (edible, expired, inedible).
	Label    string `json:"label"`
	FoodType string `json:"foodType,omitempty"`
	Source   string `json:"source"`
}
