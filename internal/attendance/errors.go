package attendance

import (
	"errors"
	"fmt"
)

// ProgramError is a failure with a stable numeric code. Two ProgramErrors
// match under errors.Is when their codes are equal.
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	return ok && t.Code == e.Code
}

// Precondition failures of the attendance program.
var (
	ErrRegistrationNotOpenYet = &ProgramError{6000, "RegistrationNotOpenYet", "registration not open yet"}
	ErrRegistrationCompleted  = &ProgramError{6001, "RegistrationCompleted", "registration completed"}
	ErrInvalidAttendanceCode  = &ProgramError{6002, "InvalidAttendanceCode", "invalid attendance code"}
	ErrNotMintingTime         = &ProgramError{6003, "NotMintingTime", "minting not reached"}
	ErrNftAlreadyMinted       = &ProgramError{6004, "NftAlreadyMinted", "already minted"}
)

// Constraint failures raised before an instruction's body runs.
var (
	ErrInstructionFallbackNotFound  = &ProgramError{101, "InstructionFallbackNotFound", "Fallback functions are not supported"}
	ErrInstructionDidNotDeserialize = &ProgramError{102, "InstructionDidNotDeserialize", "The program could not deserialize the given instruction"}
	ErrConstraintHasOne             = &ProgramError{2001, "ConstraintHasOne", "A has one constraint was violated"}
	ErrConstraintSeeds              = &ProgramError{2006, "ConstraintSeeds", "A seeds constraint was violated"}
	ErrAccountDiscriminatorMismatch = &ProgramError{3002, "AccountDiscriminatorMismatch", "8 byte discriminator did not match what was expected"}
	ErrAccountDidNotDeserialize     = &ProgramError{3003, "AccountDidNotDeserialize", "Failed to deserialize the account"}
	ErrRecordTooLarge               = &ProgramError{3004, "AccountDidNotSerialize", "Failed to serialize the account"}
	ErrNotEnoughAccountKeys         = &ProgramError{3005, "AccountNotEnoughKeys", "Not enough account keys given to the instruction"}
	ErrAccountOwnedByWrongProgram   = &ProgramError{3007, "AccountOwnedByWrongProgram", "The given account is owned by a different program than expected"}
	ErrAccountNotInitialized        = &ProgramError{3012, "AccountNotInitialized", "The program expected this account to be already initialized"}
)

// ErrArithmeticOverflow aborts a counter update that would wrap.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// Errors lists every program error in code order.
func Errors() []*ProgramError {
	return []*ProgramError{
		ErrInstructionFallbackNotFound,
		ErrInstructionDidNotDeserialize,
		ErrConstraintHasOne,
		ErrConstraintSeeds,
		ErrAccountDiscriminatorMismatch,
		ErrAccountDidNotDeserialize,
		ErrRecordTooLarge,
		ErrNotEnoughAccountKeys,
		ErrAccountOwnedByWrongProgram,
		ErrAccountNotInitialized,
		ErrRegistrationNotOpenYet,
		ErrRegistrationCompleted,
		ErrInvalidAttendanceCode,
		ErrNotMintingTime,
		ErrNftAlreadyMinted,
	}
}
