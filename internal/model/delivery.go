package model

// DeliveryStatus is a delivery's overall lifecycle state.
type DeliveryStatus string

const (
	DeliveryStatusPending    DeliveryStatus = "PENDING"
	DeliveryStatusValidating DeliveryStatus = "VALIDATING"
	DeliveryStatusProcessing DeliveryStatus = "PROCESSING"
	DeliveryStatusUploading  DeliveryStatus = "UPLOADING"
	DeliveryStatusDelivered  DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed     DeliveryStatus = "FAILED"
	DeliveryStatusRejected   DeliveryStatus = "REJECTED"
)

// PlatformDeliveryState tracks a single platform's progress within a
// multi-platform delivery.
type PlatformDeliveryState struct {
	Status       DeliveryStatus
	Progress     int
	UploadedAt   string
	Error        string
	RejectReason string
}

// Delivery is a batch of assets being pushed to one or more platforms.
type Delivery struct {
	ID         string
	Assets     []AudioAsset
	Platforms  []string
	Metadata   map[string]any
	Status     DeliveryStatus
	Progress   int
	PerPlatform map[string]PlatformDeliveryState
}
