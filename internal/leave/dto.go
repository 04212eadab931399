package leave

import (
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

type SubmitDTO struct {
	LeaveTypeID int64  `json:"leave_type_id"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	Reason      string `json:"reason"`
}

func (dto SubmitDTO) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("leave_type_id", dto.LeaveTypeID).Required()
	validator.Field("from_date", dto.FromDate).Required().Date()
	validator.Field("to_date", dto.ToDate).Required().Date()
	validator.Field("reason", dto.Reason).MaxLength(1000)
	if vErr := validator.Validate(); vErr != nil {
		return vErr
	}

	from, to := dto.Range()
	return validation.ValidateDateRange(from, to)
}

// Range returns the parsed dates; call after Validate.
func (dto SubmitDTO) Range() (time.Time, time.Time) {
	from, _ := validation.ParseDate("from_date", dto.FromDate)
	to, _ := validation.ParseDate("to_date", dto.ToDate)
	return from, to
}
