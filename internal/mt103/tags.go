package mt103

import (
	"strings"

	"github.com/tirasundara/payment-converter/internal/domain"
)

// Tag names of the fields the parser maps onto a CreditTransfer
const (
	TagReference         = "20"
	TagBankOperationCode = "23B"
	TagValueDateAmount   = "32A"
	TagOrderingCustomer  = "50K"
	TagOrderingBIC       = "50A"
	TagOrderingParty     = "50F"
	TagBeneficiary       = "59"
	TagBeneficiaryBIC    = "59A"
	TagRemittance        = "70"
	TagChargeDetails     = "71A"
)

// minValueDateAmount is YYMMDD plus a three-letter currency code
const minValueDateAmount = 9

// fieldSetter copies a tag value into ct. A non-empty return is a warning.
type fieldSetter func(ct *domain.CreditTransfer, value string) string

var tagTable = map[string]fieldSetter{
	TagReference: func(ct *domain.CreditTransfer, v string) string {
		ct.Reference = v
		return ""
	},
	TagBankOperationCode: func(ct *domain.CreditTransfer, v string) string {
		ct.BankOperationCode = v
		return ""
	},
	TagValueDateAmount: setValueDateAmount,
	TagOrderingCustomer: func(ct *domain.CreditTransfer, v string) string {
		ct.DebtorAccount, ct.DebtorName = splitParty(v, ct.DebtorAccount)
		return ""
	},
	TagOrderingBIC: func(ct *domain.CreditTransfer, v string) string {
		ct.DebtorAccount, ct.DebtorName = splitParty(v, ct.DebtorAccount)
		return ""
	},
	TagOrderingParty: func(ct *domain.CreditTransfer, v string) string {
		ct.DebtorAccount, ct.DebtorName = splitParty(v, ct.DebtorAccount)
		return ""
	},
	TagBeneficiary: func(ct *domain.CreditTransfer, v string) string {
		ct.CreditorAccount, ct.CreditorName = splitParty(v, ct.CreditorAccount)
		return ""
	},
	TagBeneficiaryBIC: func(ct *domain.CreditTransfer, v string) string {
		ct.CreditorAccount, ct.CreditorName = splitParty(v, ct.CreditorAccount)
		return ""
	},
	TagRemittance: func(ct *domain.CreditTransfer, v string) string {
		ct.Remittance = joinLines(v)
		return ""
	},
	TagChargeDetails: func(ct *domain.CreditTransfer, v string) string {
		ct.ChargeDetails = v
		return ""
	},
}

// KnownTag reports whether tag is mapped onto the model.
func KnownTag(tag string) bool {
	_, ok := tagTable[tag]
	return ok
}

// setValueDateAmount splits 32A into date [0,6), currency [6,9) and the
// amount after it. The amount keeps the SWIFT decimal comma.
func setValueDateAmount(ct *domain.CreditTransfer, v string) string {
	if len(v) < minValueDateAmount {
		return "field 32A is too short to carry date and currency"
	}
	ct.ValueDate = v[0:6]
	ct.Currency = v[6:9]
	ct.Amount = strings.TrimSpace(v[9:])
	return ""
}

// splitParty reads a party field. A first line starting with "/" is an
// account; the remaining lines form the name. account is returned unchanged
// when the field carries none.
func splitParty(v, account string) (string, string) {
	lines := strings.Split(v, "\n")
	first := strings.TrimSpace(lines[0])
	if len(lines) > 1 && strings.HasPrefix(first, "/") {
		account = strings.TrimPrefix(first, "/")
		lines = lines[1:]
	}
	return account, joinLines(strings.Join(lines, "\n"))
}

// joinLines folds a multi-line SWIFT value into one space-separated line.
func joinLines(v string) string {
	var parts []string
	for _, line := range strings.Split(v, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
