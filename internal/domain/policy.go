package domain

import "time"

// BranchPolicy is the per-branch configuration snapshot the guest flow reads.
type BranchPolicy struct {
	BranchID                 string        `bson:"_id" json:"branch_id" yaml:"branch_id"`
	OTPRequired              bool          `bson:"otp_required" json:"otp_required" yaml:"otp_required"`
	PartyEnabled             bool          `bson:"party_enabled" json:"party_enabled" yaml:"party_enabled"`
	PartyTTL                 time.Duration `bson:"party_ttl" json:"party_ttl" yaml:"party_ttl"`
	AllowPayWholeTable       bool          `bson:"allow_pay_whole_table" json:"allow_pay_whole_table" yaml:"allow_pay_whole_table"`
	AllowPayOtherGuestsItems bool          `bson:"allow_pay_other_guests_items" json:"allow_pay_other_guests_items" yaml:"allow_pay_other_guests_items"`
	TipsEnabled              bool          `bson:"tips_enabled" json:"tips_enabled" yaml:"tips_enabled"`
	TipsPercentages          []int         `bson:"tips_percentages" json:"tips_percentages" yaml:"tips_percentages"`
	CashEnabled              bool          `bson:"cash_enabled" json:"cash_enabled" yaml:"cash_enabled"`
	TerminalEnabled          bool          `bson:"terminal_enabled" json:"terminal_enabled" yaml:"terminal_enabled"`
}

const DefaultPartyTTL = 2 * time.Hour

func (p *BranchPolicy) PaymentMethodEnabled(m PaymentMethod) bool {
	switch m {
	case PaymentCash:
		return p.CashEnabled
	case PaymentTerminal:
		return p.TerminalEnabled
	default:
		return false
	}
}

// TipAllowed reports whether percent may be attached to a bill request.
func (p *BranchPolicy) TipAllowed(percent int) bool {
	if !p.TipsEnabled {
		return false
	}
	for _, v := range p.TipsPercentages {
		if v == percent {
			return true
		}
	}
	return false
}

func (p *BranchPolicy) EffectivePartyTTL() time.Duration {
	if p.PartyTTL <= 0 {
		return DefaultPartyTTL
	}
	return p.PartyTTL
}
