/*
factory.go - Balanced-entry constructors per business event

PURPOSE:
  Translates business events (cash receipt, inventory movement, sale,
  opening balance) into balanced journal entries, fixing the debit/credit
  account-naming convention per event type.

ACCOUNT MAPPING:
  Event                      Debit                          Credit
  cash receipt (cash)        Cash                           Accounts Receivable – {customer}
  cash receipt (bank/pos)    Bank/POS                       Accounts Receivable – {customer}
  inventory receipt          Inventory                      supplied credit account
  inventory issue            supplied debit account         Inventory
  adjustment (increase)      Inventory                      Inventory Adjustment Variance
  adjustment (decrease)      Inventory Adjustment Variance  Inventory
  sale                       Accounts Receivable – {customer}  Sales Revenue
  sales return               Sales Returns                  Accounts Receivable – {customer}
  opening                    supplied debit account         Opening Balance Equity

PURITY:
  Constructors are pure: identical inputs produce a structurally identical
  entry. ID, CreatedAt, and Date are left zero and assigned by
  JournalLedger.Append. No constructor touches ledger or stock state.

Every produced entry independently satisfies the balance invariant enforced
by ValidateEntry.
*/
package book

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHART OF ACCOUNTS - Authoritative account-name strings
// =============================================================================

const (
	AccountCash               = "Cash"
	AccountBankPOS            = "Bank/POS"
	AccountInventory          = "Inventory"
	AccountAdjustmentVariance = "Inventory Adjustment Variance"
	AccountSalesRevenue       = "Sales Revenue"
	AccountSalesReturns       = "Sales Returns"
	AccountOpeningEquity      = "Opening Balance Equity"
	AccountVATInput           = "VAT – Input"
)

// ReceivableAccount returns the accounts-receivable account name for a
// customer, e.g. "Accounts Receivable – Acme".
func ReceivableAccount(customerName string) string {
	return fmt.Sprintf("Accounts Receivable – %s", customerName)
}

// PaymentMethod selects the debit account of a cash receipt.
type PaymentMethod string

const (
	PayCash PaymentMethod = "cash"
	PayBank PaymentMethod = "bank"
	PayPOS  PaymentMethod = "pos"
)

// AdjustmentDirection is the sign of a stocktake correction.
type AdjustmentDirection string

const (
	AdjustIncrease AdjustmentDirection = "increase"
	AdjustDecrease AdjustmentDirection = "decrease"
)

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCashReceiptEntry records a customer payment. Cash payments debit the
// Cash account; bank and POS payments debit Bank/POS. The credit side is the
// customer's receivable account, so the customer's open balance shrinks.
func NewCashReceiptEntry(receiptNo string, amount decimal.Decimal, method PaymentMethod, customerID, customerName, note string) Entry {
	debit := AccountBankPOS
	if method == PayCash {
		debit = AccountCash
	}
	description := fmt.Sprintf("Cash receipt %s from %s", receiptNo, customerName)
	if note != "" {
		description = fmt.Sprintf("%s (%s)", description, note)
	}
	return Entry{
		Description:     description,
		Reference:       receiptNo,
		DebitAccount:    debit,
		CreditAccount:   ReceivableAccount(customerName),
		Amount:          amount,
		Status:          StatusApproved,
		Origin:          OriginAuto,
		Operation:       OpCashReceipt,
		SourceReference: customerID,
	}
}

// NewInventoryReceiptEntry records goods received into a warehouse, funded
// from creditAccount (a bank account, supplier payable, ...). When includeTax
// is set the tax-inclusive total is posted to Inventory; a fuller system
// would split the tax amount onto AccountVATInput as a separate leg, which
// this single-debit/single-credit model does not support.
func NewInventoryReceiptEntry(receiptNo string, amountExclTax decimal.Decimal, creditAccount string, warehouse WarehouseID, warehouseName, description string, includeTax bool, taxAmount decimal.Decimal) Entry {
	amount := amountExclTax
	if includeTax {
		amount = amount.Add(taxAmount)
	}
	if description == "" {
		description = fmt.Sprintf("Inventory receipt %s into %s", receiptNo, warehouseName)
	}
	return Entry{
		Description:     description,
		Reference:       receiptNo,
		DebitAccount:    AccountInventory,
		CreditAccount:   creditAccount,
		Amount:          amount,
		Status:          StatusApproved,
		Origin:          OriginAuto,
		Operation:       OpInventoryReceipt,
		SourceReference: string(warehouse),
	}
}

// NewInventoryIssueEntry records goods issued out of a warehouse to
// debitAccount (cost of goods sold, damages expense, ...). Reason is the
// business justification recorded alongside the issue document number.
func NewInventoryIssueEntry(issueNo string, amount decimal.Decimal, debitAccount string, warehouse WarehouseID, warehouseName, description, reason string) Entry {
	if description == "" {
		description = fmt.Sprintf("Inventory issue %s from %s", issueNo, warehouseName)
	}
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}
	return Entry{
		Description:     description,
		Reference:       issueNo,
		DebitAccount:    debitAccount,
		CreditAccount:   AccountInventory,
		Amount:          amount,
		Status:          StatusApproved,
		Origin:          OriginAuto,
		Operation:       OpInventoryIssue,
		SourceReference: string(warehouse),
	}
}

// NewInventoryAdjustmentEntry records the valuation delta of a stocktake
// correction. An increase debits Inventory against the variance account, a
// decrease does the opposite. Amount is the absolute valuation difference
// (|count difference| x unit cost).
func NewInventoryAdjustmentEntry(adjNo string, amount decimal.Decimal, direction AdjustmentDirection, reason string, warehouse WarehouseID, warehouseName string) Entry {
	debit, credit := AccountInventory, AccountAdjustmentVariance
	if direction == AdjustDecrease {
		debit, credit = AccountAdjustmentVariance, AccountInventory
	}
	description := fmt.Sprintf("Stocktake adjustment %s (%s) in %s", adjNo, direction, warehouseName)
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}
	return Entry{
		Description:     description,
		Reference:       adjNo,
		DebitAccount:    debit,
		CreditAccount:   credit,
		Amount:          amount,
		Status:          StatusApproved,
		Origin:          OriginAuto,
		Operation:       OpInventoryAdjustment,
		SourceReference: string(warehouse),
	}
}

// NewSaleEntry records a credit sale to a customer: the customer owes the
// invoice total, revenue is recognized.
func NewSaleEntry(invoiceNo string, amount decimal.Decimal, customerID, customerName, note string) Entry {
	description := fmt.Sprintf("Sale %s to %s", invoiceNo, customerName)
	if note != "" {
		description = fmt.Sprintf("%s (%s)", description, note)
	}
	return Entry{
		Description:     description,
		Reference:       invoiceNo,
		DebitAccount:    ReceivableAccount(customerName),
		CreditAccount:   AccountSalesRevenue,
		Amount:          amount,
		Status:          StatusApproved,
		Origin:          OriginAuto,
		Operation:       OpSale,
		SourceReference: customerID,
	}
}

// NewSalesReturnEntry reverses part of a sale: returns reduce what the
// customer owes.
func NewSalesReturnEntry(returnNo string, amount decimal.Decimal, customerID, customerName, reason string) Entry {
	description := fmt.Sprintf("Sales return %s from %s", returnNo, customerName)
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}
	return Entry{
		Description:     description,
		Reference:       returnNo,
		DebitAccount:    AccountSalesReturns,
		CreditAccount:   ReceivableAccount(customerName),
		Amount:          amount,
		Status:          StatusApproved,
		Origin:          OriginAuto,
		Operation:       OpSalesReturn,
		SourceReference: customerID,
	}
}

// NewOpeningEntry seeds an account balance when the books are first set up.
func NewOpeningEntry(refNo string, amount decimal.Decimal, debitAccount, description string) Entry {
	if description == "" {
		description = fmt.Sprintf("Opening balance %s", refNo)
	}
	return Entry{
		Description:   description,
		Reference:     refNo,
		DebitAccount:  debitAccount,
		CreditAccount: AccountOpeningEquity,
		Amount:        amount,
		Status:        StatusApproved,
		Origin:        OriginAuto,
		Operation:     OpOpening,
	}
}
