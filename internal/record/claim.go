package record

import "fmt"

// Money is a currency amount in integer cents. Claim arithmetic stays in
// integer space so repeated summation cannot drift the way binary floating
// point does; amounts render with exactly two decimal places.
type Money int64

// Cents returns a Money amount from an integer number of cents.
func Cents(c int64) Money { return Money(c) }

// Dollars returns a Money amount from whole dollars.
func Dollars(d int64) Money { return Money(d * 100) }

// String renders the amount as a decimal string, e.g. "120.00".
func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

// ClaimItemKind distinguishes the two kinds of billable claim line items.
type ClaimItemKind int

const (
	// ItemProcedure bills for a performed procedure.
	ItemProcedure ClaimItemKind = iota
	// ItemDiagnosis records a diagnosed condition on the claim. Diagnosis
	// items usually carry zero cost.
	ItemDiagnosis
)

// ClaimItem is one line item on a claim, backed by the procedure or
// condition entry it bills for.
type ClaimItem struct {
	Kind  ClaimItemKind `json:"kind"`
	Entry *Entry        `json:"-"`
	Cost  Money         `json:"cost"`
}

// Claim is the billing record attached to an encounter or a dispensed
// medication.
type Claim struct {
	Items []ClaimItem `json:"items,omitempty"`
}

// AddProcedure appends a procedure line item billing the given procedure
// at its entry cost.
func (c *Claim) AddProcedure(p *Procedure) {
	c.Items = append(c.Items, ClaimItem{Kind: ItemProcedure, Entry: &p.Entry, Cost: p.Cost})
}

// AddDiagnosis appends a diagnosis line item for the given condition.
func (c *Claim) AddDiagnosis(cond *Condition) {
	c.Items = append(c.Items, ClaimItem{Kind: ItemDiagnosis, Entry: &cond.Entry, Cost: cond.Cost})
}

// Total is the sum of all item costs.
func (c *Claim) Total() Money {
	var total Money
	for _, item := range c.Items {
		total += item.Cost
	}
	return total
}
