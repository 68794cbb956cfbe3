package vnpay

// Response codes the gateway returns in vnp_ResponseCode.
const (
	CodeSuccess           = "00"
	CodeSuspectedFraud    = "07"
	CodeNotRegistered     = "09"
	CodeAuthFailed        = "10"
	CodeTimeout           = "11"
	CodeAccountLocked     = "12"
	CodeWrongOTP          = "13"
	CodeCustomerCancelled = "24"
	CodeInsufficientFunds = "51"
	CodeLimitExceeded     = "65"
	CodeBankMaintenance   = "75"
	CodePasswordRetries   = "79"
	CodeUnknownError      = "99"
)

var responseMessages = map[string]string{
	CodeSuccess:           "transaction successful",
	CodeSuspectedFraud:    "suspected fraud",
	CodeNotRegistered:     "card not registered for internet banking",
	CodeAuthFailed:        "authentication failed more than 3 times",
	CodeTimeout:           "payment timeout expired",
	CodeAccountLocked:     "card or account locked",
	CodeWrongOTP:          "incorrect OTP",
	CodeCustomerCancelled: "customer cancelled transaction",
	CodeInsufficientFunds: "insufficient funds",
	CodeLimitExceeded:     "daily transaction limit exceeded",
	CodeBankMaintenance:   "payment bank under maintenance",
	CodePasswordRetries:   "payment password wrong too many times",
	CodeUnknownError:      "unknown error",
}

// ResponseMessage maps a gateway response code to a customer-facing message.
// Codes the table does not know fall back to the generic failure message.
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return responseMessages[CodeUnknownError]
}

func IsSuccessCode(code string) bool {
	return code == CodeSuccess
}
