package ledger

import "github.com/erp/ledger/internal/domain/shared"

// Ledger error sentinels. Match with errors.Is; messages on returned errors carry details.
var (
	ErrInvalidAccount           = shared.NewDomainError("INVALID_ACCOUNT", "Invalid account")
	ErrDuplicateAccount         = shared.NewDomainError("DUPLICATE_ACCOUNT", "Account already exists")
	ErrAccountInUse             = shared.NewKindError(shared.KindInvalidState, "ACCOUNT_IN_USE", "Account is referenced by journal entries")
	ErrAccountNotFound          = shared.NewKindError(shared.KindNotFound, "ACCOUNT_NOT_FOUND", "Account not found")
	ErrUnknownAccount           = shared.NewDomainError("UNKNOWN_ACCOUNT", "Unknown account code")
	ErrImbalancedEntry          = shared.NewDomainError("IMBALANCED_ENTRY", "Debits and credits do not balance")
	ErrTooFewLines              = shared.NewDomainError("TOO_FEW_LINES", "A journal entry needs at least two lines")
	ErrInvalidEntryLine         = shared.NewDomainError("INVALID_ENTRY_LINE", "Invalid journal entry line")
	ErrInvalidJournal           = shared.NewDomainError("INVALID_JOURNAL", "Invalid journal code")
	ErrInvalidDateRange         = shared.NewDomainError("INVALID_DATE_RANGE", "Invalid date range")
	ErrUnbalancedOpeningBalance = shared.NewDomainError("UNBALANCED_OPENING_BALANCE", "Opening balance assets do not equal liabilities and equity")
	ErrInvalidOpeningBalance    = shared.NewDomainError("INVALID_OPENING_BALANCE", "Invalid opening balance")
)
