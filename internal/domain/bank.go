package domain

import "strings"

// Bank is a canonical bank label. Provider responses spell the same
// bank several ways depending on the endpoint.
type Bank string

const (
	BankMBBank      Bank = "MBBank"
	BankVietcombank Bank = "Vietcombank"
	BankTechcombank Bank = "Techcombank"
	BankACB         Bank = "ACB"
	BankBIDV        Bank = "BIDV"
	BankVietinBank  Bank = "VietinBank"
	BankAgribank    Bank = "Agribank"
	BankTPBank      Bank = "TPBank"
	BankVPBank      Bank = "VPBank"
	BankSacombank   Bank = "Sacombank"
)

var bankAliases = map[string]Bank{
	"mb bank":                                BankMBBank,
	"mbbank":                                 BankMBBank,
	"military commercial joint stock bank":   BankMBBank,
	"vietcombank":                            BankVietcombank,
	"vcb":                                    BankVietcombank,
	"techcombank":                            BankTechcombank,
	"tcb":                                    BankTechcombank,
	"acb":                                    BankACB,
	"asia commercial bank":                   BankACB,
	"bidv":                                   BankBIDV,
	"vietinbank":                             BankVietinBank,
	"agribank":                               BankAgribank,
	"tpbank":                                 BankTPBank,
	"tien phong commercial joint stock bank": BankTPBank,
	"vpbank":                                 BankVPBank,
	"sacombank":                              BankSacombank,
}

// NormalizeBank maps a provider bank label to its canonical form.
// Unknown labels pass through unchanged: a display label must not fail
// an otherwise valid record.
func NormalizeBank(name string) Bank {
	if b, ok := bankAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b
	}
	return Bank(strings.TrimSpace(name))
}
