package api

import (
	"errors"
	"fmt"
	"net/http"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/capability"
	"ms-attendance/internal/issuance"
	"ms-attendance/internal/ledger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/qr"
	"ms-attendance/internal/utils"
)

// statusFor maps a failure to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, attendance.ErrInvalidAttendanceCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, attendance.ErrRegistrationNotOpenYet),
		errors.Is(err, attendance.ErrRegistrationCompleted),
		errors.Is(err, attendance.ErrNotMintingTime),
		errors.Is(err, attendance.ErrNftAlreadyMinted),
		errors.Is(err, attendance.ErrArithmeticOverflow),
		errors.Is(err, ledger.ErrAccountInUse),
		errors.Is(err, ledger.ErrWriteConflict):
		return http.StatusConflict
	case errors.Is(err, attendance.ErrAccountNotInitialized),
		errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, attendance.ErrConstraintHasOne),
		errors.Is(err, capability.ErrUnauthorizedAuthority):
		return http.StatusForbidden
	case errors.Is(err, errNoCaller):
		return http.StatusUnauthorized
	case errors.Is(err, attendance.ErrInstructionFallbackNotFound),
		errors.Is(err, attendance.ErrInstructionDidNotDeserialize),
		errors.Is(err, attendance.ErrNotEnoughAccountKeys),
		errors.Is(err, attendance.ErrConstraintSeeds),
		errors.Is(err, attendance.ErrRecordTooLarge),
		errors.Is(err, attendance.ErrAccountDiscriminatorMismatch),
		errors.Is(err, attendance.ErrAccountDidNotDeserialize),
		errors.Is(err, attendance.ErrAccountOwnedByWrongProgram),
		errors.Is(err, issuance.ErrInvalidMetadata),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, qr.ErrInvalidPass),
		errors.Is(err, errMissingCode),
		errors.Is(err, errBadCode),
		errors.Is(err, errPassEvent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := utils.ErrorResponse(http.StatusText(status), err.Error())

	var perr *attendance.ProgramError
	if errors.As(err, &perr) {
		resp.Code = perr.Code
		resp.Error = perr.Msg
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
		resp.Error = "internal error"
	} else {
		h.Logger.Debug("API", fmt.Sprintf("%s %s: %d %v", r.Method, r.URL.Path, status, err))
	}
	utils.WriteJSON(w, status, resp)
}

// ErrorCatalog lists the program's stable error codes so clients can match
// the code field of a failed response.
func (h *Handler) ErrorCatalog(w http.ResponseWriter, r *http.Request) {
	errs := attendance.Errors()
	views := make([]models.ErrorView, 0, len(errs))
	for _, e := range errs {
		views = append(views, models.ErrorView{
			Code:    e.Code,
			Name:    e.Name,
			Message: e.Msg,
			Status:  statusFor(e),
		})
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("program errors", views))
}
