package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUploadFailed     = errors.New("upload failed")
	ErrCreateFailed     = errors.New("create failed")
	ErrDeleteFailed     = errors.New("delete failed")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrProductCreatedRequestNotDeleted is a partial success: the product is
	// live but the submission row could not be confirmed gone.
	ErrProductCreatedRequestNotDeleted = errors.New("product created but request not deleted")

	// ErrPartitionUnresolvable is never returned to callers; it tags the
	// warning logged when a category falls back to the default partition.
	ErrPartitionUnresolvable = errors.New("partition unresolvable")
)

// Kind names an error for API consumers. Order matters: a partial success
// wrapping a permission error still reports the partial success.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProductCreatedRequestNotDeleted):
		return "product_created_request_not_deleted"
	case errors.Is(err, ErrCreateFailed):
		return "create_failed"
	case errors.Is(err, ErrUploadFailed):
		return "upload_failed"
	case errors.Is(err, ErrDeleteFailed):
		return "delete_failed"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrPartitionUnresolvable):
		return "partition_unresolvable"
	default:
		return "internal"
	}
}
