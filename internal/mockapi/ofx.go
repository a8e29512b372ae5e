package mockapi

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/remmiculous/transaction-insights-dashboard/internal/model"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags missing their closing bracket at end of line.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in bank exports.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseOFX reads an OFX/QFX statement and converts its entries into fixture
// transactions. Posted entries are treated as successful.
func ParseOFX(r io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var txns []model.Transaction

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		currency := stmt.CurDef.String()
		for _, t := range stmt.BankTranList.Transactions {
			txns = append(txns, convertOFX(t, currency))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		currency := stmt.CurDef.String()
		for _, t := range stmt.BankTranList.Transactions {
			txns = append(txns, convertOFX(t, currency))
		}
	}

	slog.Info("Parsed OFX file", "transactions", len(txns))

	return txns, nil
}

func convertOFX(t ofxgo.Transaction, currency string) model.Transaction {
	amount, err := decimal.NewFromString(t.TrnAmt.FloatString(2))
	if err != nil {
		amount = decimal.Zero
	}

	if t.Currency != nil {
		if ok, _ := t.Currency.CurSym.Valid(); ok {
			currency = t.Currency.CurSym.String()
		}
	}

	return model.Transaction{
		ID:        string(t.FiTID),
		Name:      payeeName(t),
		Amount:    amount.Abs().StringFixed(2),
		Currency:  currency,
		Category:  categoryForType(fmt.Sprintf("%v", t.TrnType), amount),
		Status:    model.StatusSuccess,
		CreatedAt: t.DtPosted.UTC().Format(createdAtLayout),
	}
}

func payeeName(t ofxgo.Transaction) string {
	if t.Payee != nil && t.Payee.Name != "" {
		return strings.TrimSpace(string(t.Payee.Name))
	}
	name := strings.TrimSpace(string(t.Name))
	if name == "" {
		name = strings.TrimSpace(string(t.Memo))
	}
	return name
}

// categoryForType maps OFX transaction types onto dashboard categories.
func categoryForType(trnType string, amount decimal.Decimal) string {
	switch trnType {
	case "ATM", "CASH":
		return "withdraw"
	case "CREDIT", "DEP", "DIRECTDEP", "INT", "DIV":
		return "deposit"
	case "PAYMENT", "DIRECTDEBIT", "REPEATPMT", "POS", "CHECK":
		return "payment"
	case "FEE", "SRVCHG":
		return "invoice"
	}
	if amount.IsNegative() {
		return "payment"
	}
	return "deposit"
}
