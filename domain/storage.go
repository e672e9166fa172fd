package domain

var (
	MessageSuccessGetStorageStatus = "storage status retrieved successfully"
	MessageSuccessSetProvider      = "storage provider updated"
	MessageSuccessMigrateStorage   = "storage migration finished"

	MessageFailedGetStorageStatus = "failed to retrieve storage status"
	MessageFailedSetProvider      = "failed to update storage provider"
	MessageFailedMigrateStorage   = "failed to migrate storage"
)

type SetProviderRequest struct {
	Provider string `json:"provider" validate:"required,oneof=postgres firebase"`
}
