package validation

import (
	"regexp"
	"strings"

	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/iwvelando/setaside/pkg/mathutil"
)

// Field names reported in FieldError.
const (
	FieldSetAsideType            = "setAsideType"
	FieldDisasterCode            = "disasterCode"
	FieldInstallmentDate         = "installmentDate"
	FieldSetAsideAmount          = "setAsideAmount"
	FieldPaymentAfterInstallment = "paymentAfterInstallment"
	FieldApprovalDate            = "approvalDate"
)

// Messages shown to the servicer.
const (
	MsgSetAsideTypeInvalid     = "The Set-Aside Type must be DSA or DBSA."
	MsgDisasterCodeRequired    = "The Disaster Designation Code is required."
	MsgDisasterCodeFormat      = "The Disaster Designation Code format is invalid, it must be in the following format Axxxx where A must be M, S, N, or Q and xxxx is a four digit number.  M=Presidential, S=Secretarial, N=Administrator Physical Loss, Q=Quarantine"
	MsgInstallmentDateRequired = "Installment Date is required."
	MsgSetAsideAmountRequired  = "The Set-Aside Amount is required."
	MsgSetAsideAmountNumeric   = "The Set-Aside Amount must be a number."
	MsgSetAsideAmountPositive  = "Set-Aside Amount must be greater than zero."
	MsgPaymentAfterRequired    = "The Payment After Installment Date is required."
	MsgPaymentAfterNumeric     = "The Payment After Installment Date must be a number."
	MsgApprovalDateFormat      = "The Approval Date must be a valid MM/DD/YYYY date."
)

var disasterCodePattern = regexp.MustCompile(`^[MSNQ]\d{4}$`)

// FieldError ties a validation message to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every problem found on a form.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field has at least one error.
func (fe FieldErrors) Has(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}
	return false
}

// SetAsideForm is the servicer-entered part of a set-aside request.
type SetAsideForm struct {
	SetAsideType            string `json:"setAsideType"`
	DisasterCode            string `json:"disasterCode"`
	InstallmentDate         string `json:"installmentDate"`
	SetAsideAmount          string `json:"setAsideAmount"`
	PaymentAfterInstallment string `json:"paymentAfterInstallment"`
}

// Normalize applies the form defaults: an empty type is DSA and a DBSA
// request always carries the fixed DBSA designation code.
func (f SetAsideForm) Normalize() SetAsideForm {
	f.SetAsideType = strings.ToUpper(strings.TrimSpace(f.SetAsideType))
	if f.SetAsideType == "" {
		f.SetAsideType = constants.SetAsideTypeDSA
	}
	if f.SetAsideType == constants.SetAsideTypeDBSA {
		f.DisasterCode = constants.DBSADisasterCode
	}
	f.DisasterCode = strings.TrimSpace(f.DisasterCode)
	f.InstallmentDate = strings.TrimSpace(f.InstallmentDate)
	return f
}

// ValidateSetAsideForm checks a normalized form and returns nil when it is valid.
func ValidateSetAsideForm(f SetAsideForm) FieldErrors {
	var errs FieldErrors
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	switch f.SetAsideType {
	case constants.SetAsideTypeDSA:
		if msg := ValidateDisasterCode(f.DisasterCode); msg != "" {
			add(FieldDisasterCode, msg)
		}
	case constants.SetAsideTypeDBSA:
	default:
		add(FieldSetAsideType, MsgSetAsideTypeInvalid)
	}

	if f.InstallmentDate == "" {
		add(FieldInstallmentDate, MsgInstallmentDateRequired)
	}

	if msg := ValidateSetAsideAmount(f.SetAsideAmount); msg != "" {
		add(FieldSetAsideAmount, msg)
	}

	if msg := ValidatePaymentAfterInstallment(f.PaymentAfterInstallment); msg != "" {
		add(FieldPaymentAfterInstallment, msg)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateDisasterCode returns the message for a missing or malformed DSA
// designation code, or "" when the code is acceptable.
func ValidateDisasterCode(code string) string {
	if code == "" {
		return MsgDisasterCodeRequired
	}
	if !disasterCodePattern.MatchString(code) {
		return MsgDisasterCodeFormat
	}
	return ""
}

// ValidateSetAsideAmount returns the message for a missing, non-numeric or
// non-positive amount, or "" when the amount is acceptable.
func ValidateSetAsideAmount(amount string) string {
	if isBlankAmount(amount) {
		return MsgSetAsideAmountRequired
	}
	value, err := mathutil.ParseCurrency(amount)
	if err != nil {
		return MsgSetAsideAmountNumeric
	}
	if !value.IsPositive() {
		return MsgSetAsideAmountPositive
	}
	return ""
}

// ValidatePaymentAfterInstallment returns the message for a missing or
// non-numeric payment amount, or "" when it is acceptable.
func ValidatePaymentAfterInstallment(amount string) string {
	if isBlankAmount(amount) {
		return MsgPaymentAfterRequired
	}
	if _, err := mathutil.ParseCurrency(amount); err != nil {
		return MsgPaymentAfterNumeric
	}
	return ""
}

func isBlankAmount(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "."
}
